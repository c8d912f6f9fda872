package importer

import (
	"fmt"

	"github.com/mauv0809/refgrade/internal/match"
)

// Format selects the schedule file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// fieldCount is the number of columns per row:
// date;time;home team;away team;referee;observer;stadium
const fieldCount = 7

// Row is one schedule line, still holding names rather than ids.
type Row struct {
	Line     int
	Date     string
	Time     string
	HomeTeam string
	AwayTeam string
	Referee  string
	Observer string
	Stadium  string
}

// Lookup resolves the names used in a schedule file.
type Lookup interface {
	FindTeamByName(leagueID, name string) (*match.Team, error)
	FindUserByName(fullName string, role match.Role) (*match.User, error)
}

// LineError ties a rejection to the 1-based line of the file it came from.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func lineErr(line int, format string, args ...any) error {
	return &LineError{Line: line, Err: fmt.Errorf("%w: "+format, append([]any{match.ErrValidation}, args...)...)}
}
