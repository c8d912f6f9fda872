package orchestrator

import (
	"time"

	"github.com/mauv0809/refgrade/internal/clock"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/pubsub"
	"github.com/mauv0809/refgrade/internal/sms"
)

// Orchestrator owns every state transition of a match. It is the only
// caller of the SMS gateway.
type Orchestrator struct {
	store    Store
	sms      sms.Client
	notifier Notifier
	pubsub   pubsub.Publisher
	metrics  metrics.Metrics
	clock    clock.Clock
	loc      *time.Location
	windows  match.Windows
}

// Options tune the orchestrator. Zero values fall back to the defaults.
type Options struct {
	// Location defines calendar days for the conflict rule and SMS rendering. UTC when nil.
	Location *time.Location
	// MatchDuration is the time from kick-off until the match is over.
	MatchDuration time.Duration
	Clock         clock.Clock
}
