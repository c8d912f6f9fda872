// Package gradesms parses grade replies sent by observers over SMS.
//
// A reply has the form <matchKey>#<grade>/<maxGrade>. Parse applies the
// syntactic gates in order and stops at the first one that fails, returning a
// *Rejection whose Reply is sent back to the sender verbatim.
package gradesms

import (
	"math"
	"strconv"
	"strings"
)

// Replies sent to the observer. Exactly one of them answers every inbound message.
const (
	ReplyInvalidFormat      = "Invalid sms format."
	ReplyInvalidGradeFormat = "Invalid sms grade format."
	ReplyInvalidKey         = "Invalid match key."
	ReplyInvalidGrade       = "Invalid grade."
	ReplyAlreadyGraded      = "Grade has already been entered."
	ReplyTooEarly           = "Cannot enter a grade before match end."
	ReplyGradeEntered       = "Grade has been entered."
)

// Parsed is a syntactically valid grade reply.
type Parsed struct {
	Key      string
	Grade    float64
	MaxGrade string
}

// Rejection is returned when the body fails a gate.
type Rejection struct {
	Reply string
}

func (r *Rejection) Error() string {
	return "grade sms rejected: " + r.Reply
}

// Reject builds a rejection carrying reply.
func Reject(reply string) *Rejection {
	return &Rejection{Reply: reply}
}

// Parse validates body and extracts the key and grade.
// The max grade is kept as sent and never compared with the grade.
func Parse(body string) (Parsed, error) {
	parts := strings.Split(strings.TrimSpace(body), "#")
	if len(parts) != 2 {
		return Parsed{}, Reject(ReplyInvalidFormat)
	}
	gradeParts := strings.Split(parts[1], "/")
	if len(gradeParts) != 2 {
		return Parsed{}, Reject(ReplyInvalidGradeFormat)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return Parsed{}, Reject(ReplyInvalidKey)
	}
	grade, ok := parseNumber(gradeParts[0])
	if !ok {
		return Parsed{}, Reject(ReplyInvalidGrade)
	}
	return Parsed{
		Key:      key,
		Grade:    grade,
		MaxGrade: strings.TrimSpace(gradeParts[1]),
	}, nil
}

// parseNumber accepts decimal numbers with either '.' or ',' as the separator.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
