package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mauv0809/refgrade/internal/match"
)

// rawID accepts the gateway's messageId as a JSON number or string.
type rawID string

func (r *rawID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch id := v.(type) {
	case nil:
		*r = ""
	case string:
		*r = rawID(id)
	case json.Number:
		*r = rawID(id.String())
	default:
		return fmt.Errorf("messageId must be a number or a string, got %T", v)
	}
	return nil
}

// parseMessageID checks that a stored gateway id is numeric. The error is a
// gateway error so callers treat it like any other failed cancel.
func parseMessageID(messageID string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(messageID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %q", match.ErrGatewayUnavailable, match.ErrInvalidMessageID, messageID)
	}
	return n, nil
}

// ReminderText renders the Polish pre-match reminder for key at matchDate.
func ReminderText(matchDate time.Time, key string, loc *time.Location) string {
	local := matchDate.In(locationOrUTC(loc))
	return fmt.Sprintf(reminderTemplate, local.Format("02.01.2006"), local.Format("15:04"), key)
}

// CanceledText renders the notice sent to officials when a match is removed.
func CanceledText(matchDate time.Time, key string, loc *time.Location) string {
	local := matchDate.In(locationOrUTC(loc))
	return fmt.Sprintf(MatchCanceledTemplate, key, local.Format("02.01.2006 15:04"))
}

// SendDate is the moment the reminder goes out: one calendar day before kick-off.
func SendDate(matchDate time.Time, loc *time.Location) string {
	return matchDate.In(locationOrUTC(loc)).AddDate(0, 0, -1).Format(dateLayout)
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
