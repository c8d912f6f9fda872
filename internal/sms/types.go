package sms

import "time"

// DefaultBaseURL is the production gateway endpoint.
const DefaultBaseURL = "https://api2.smsplanet.pl"

// dateLayout is the gateway's DD-MM-YYYY HH:mm:ss format for scheduled sends.
const dateLayout = "02-01-2006 15:04:05"

// Config carries the gateway credentials and sender id.
type Config struct {
	BaseURL  string
	APIKey   string
	Password string
	Sender   string
	// Location renders match times in the league's local time. UTC when nil.
	Location *time.Location
	// RatePerSecond paces outbound calls. Zero disables pacing.
	RatePerSecond float64
}

// sendResponse is the gateway's reply to POST /sms. messageId arrives either
// as a JSON number or as a string depending on the account type.
type sendResponse struct {
	MessageID rawID  `json:"messageId"`
	ErrorMsg  string `json:"errorMsg,omitempty"`
}

const (
	// MatchCanceledTemplate is filled with the match key and local date.
	MatchCanceledTemplate = "Mecz %s zaplanowany na %s został odwołany. Obserwacja nie jest już wymagana."
	reminderTemplate      = "Przypomnienie: jutro, %s o godz. %s obserwujesz mecz. Po meczu odeślij ocenę sędziego w formacie %s#ocena/skala."
)
