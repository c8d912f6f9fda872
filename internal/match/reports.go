package match

import "fmt"

// ReportType selects one of the three report artifact slots on a match.
type ReportType string

const (
	ReportObserver ReportType = "observer"
	ReportMentor   ReportType = "mentor"
	ReportTV       ReportType = "tv"
)

// ReportTypes lists every report type.
func ReportTypes() []ReportType {
	return []ReportType{ReportObserver, ReportMentor, ReportTV}
}

// reportSlots maps each report type to exactly one key field of Match.
var reportSlots = map[ReportType]func(m *Match) **string{
	ReportObserver: func(m *Match) **string { return &m.ObserverReport },
	ReportMentor:   func(m *Match) **string { return &m.MentorReport },
	ReportTV:       func(m *Match) **string { return &m.TvReport },
}

// ParseReportType converts a path segment into a ReportType.
func ParseReportType(s string) (ReportType, error) {
	rt := ReportType(s)
	if _, ok := reportSlots[rt]; !ok {
		return "", fmt.Errorf("%w: unknown report type %q", ErrValidation, s)
	}
	return rt, nil
}

// ReportKey returns the artifact key stored for rt, or nil when the slot is empty.
func (m *Match) ReportKey(rt ReportType) (*string, error) {
	slot, ok := reportSlots[rt]
	if !ok {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, rt)
	}
	return *slot(m), nil
}

// SetReportKey stores key in the slot for rt. A nil key clears the slot.
func (m *Match) SetReportKey(rt ReportType, key *string) error {
	slot, ok := reportSlots[rt]
	if !ok {
		return fmt.Errorf("%w: unknown report type %q", ErrValidation, rt)
	}
	*slot(m) = key
	return nil
}
