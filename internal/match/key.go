package match

import (
	"fmt"
	"time"
)

// MaxOrdinal is the largest 1-based ordinal that fits in the key without truncation.
const MaxOrdinal = 99

// UserReadableKey derives the short key officials quote in SMS replies:
// DDMMYY in UTC, then the 1-based league and home team ordinals as two digits each.
// Ordinals above 99 keep only their low-order two digits.
func UserReadableKey(date time.Time, leagueIdx, homeTeamIdx int) string {
	d := date.UTC()
	return fmt.Sprintf("%02d%02d%02d%02d%02d",
		d.Day(),
		int(d.Month()),
		d.Year()%100,
		(leagueIdx+1)%100,
		(homeTeamIdx+1)%100,
	)
}
