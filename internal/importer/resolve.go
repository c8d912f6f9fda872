package importer

import (
	"errors"
	"time"

	"github.com/mauv0809/refgrade/internal/match"
)

// Resolve turns rows into drafts for leagueID. Dates are read in loc and must
// not be in the past relative to now. The first failing row aborts the batch.
func Resolve(rows []Row, leagueID string, lookup Lookup, loc *time.Location, now time.Time) ([]match.Draft, error) {
	if loc == nil {
		loc = time.UTC
	}
	drafts := make([]match.Draft, 0, len(rows))
	for _, row := range rows {
		d, err := resolveRow(row, leagueID, lookup, loc, now)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func resolveRow(row Row, leagueID string, lookup Lookup, loc *time.Location, now time.Time) (match.Draft, error) {
	date, err := time.ParseInLocation("2006-01-02 15:04", row.Date+" "+row.Time, loc)
	if err != nil {
		return match.Draft{}, lineErr(row.Line, "invalid date or time %q %q", row.Date, row.Time)
	}
	if date.Before(now) {
		return match.Draft{}, lineErr(row.Line, "match date %s is in the past", date.Format("2006-01-02 15:04"))
	}
	if row.Stadium == "" {
		return match.Draft{}, lineErr(row.Line, "missing stadium")
	}

	home, err := lookup.FindTeamByName(leagueID, row.HomeTeam)
	if err != nil {
		return match.Draft{}, lookupErr(row.Line, err, "unknown team %q", row.HomeTeam)
	}
	away, err := lookup.FindTeamByName(leagueID, row.AwayTeam)
	if err != nil {
		return match.Draft{}, lookupErr(row.Line, err, "unknown team %q", row.AwayTeam)
	}
	referee, err := lookup.FindUserByName(row.Referee, match.RoleReferee)
	if err != nil {
		return match.Draft{}, lookupErr(row.Line, err, "unknown referee %q", row.Referee)
	}
	observer, err := lookup.FindUserByName(row.Observer, match.RoleObserver)
	if err != nil {
		return match.Draft{}, lookupErr(row.Line, err, "unknown observer %q", row.Observer)
	}

	return match.Draft{
		MatchDate:  date,
		Stadium:    row.Stadium,
		LeagueID:   leagueID,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		RefereeID:  referee.ID,
		ObserverID: observer.ID,
	}, nil
}

func lookupErr(line int, err error, format string, args ...any) error {
	if errors.Is(err, match.ErrNotFound) {
		return lineErr(line, format, args...)
	}
	return &LineError{Line: line, Err: err}
}
