package sms

import (
	"context"
	"time"
)

// Client defines the operations the match lifecycle needs from the SMS gateway.
// This allows for mock implementations to be used in tests.
type Client interface {
	// SendOneWay delivers msg to the recipient immediately.
	SendOneWay(ctx context.Context, to, msg string) error
	// Schedule books the pre-match reminder for the day before matchDate and
	// returns the gateway message id needed to cancel it.
	Schedule(ctx context.Context, matchDate time.Time, key, to string) (string, error)
	// Cancel withdraws a previously scheduled message.
	Cancel(ctx context.Context, messageID string) error
}
