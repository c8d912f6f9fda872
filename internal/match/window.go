package match

import "time"

// DefaultMatchDuration is the time from kick-off until a match is considered over.
const DefaultMatchDuration = 2 * time.Hour

// IsWithinEntryWindow reports whether at least window has elapsed since reference.
// There is no upper bound: once open, the window stays open.
func IsWithinEntryWindow(now, reference time.Time, window time.Duration) bool {
	return !now.Before(reference.Add(window))
}

// Windows are the grading windows measured from kick-off.
type Windows struct {
	// MatchEnd gates the first grade sent by SMS.
	MatchEnd time.Duration
	// RefereeGrade gates rewriting an existing referee grade.
	RefereeGrade time.Duration
	// OverallGrade gates rewriting an existing overall grade.
	OverallGrade time.Duration
}

// NewWindows derives the grading windows from the match duration.
func NewWindows(matchDuration time.Duration) Windows {
	return Windows{
		MatchEnd:     matchDuration,
		RefereeGrade: matchDuration + 2*time.Hour,
		OverallGrade: matchDuration + 48*time.Hour,
	}
}
