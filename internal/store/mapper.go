package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauv0809/refgrade/internal/match"
)

type scanner interface{ Scan(...any) error }

func scanLeague(row scanner) (*match.League, error) {
	var (
		l       match.League
		created int64
	)
	if err := row.Scan(&l.ID, &l.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: league", match.ErrNotFound)
		}
		return nil, err
	}
	l.CreatedAt = time.Unix(0, created).UTC()
	return &l, nil
}

func scanTeam(row scanner) (*match.Team, error) {
	var (
		t       match.Team
		created int64
	)
	if err := row.Scan(&t.ID, &t.LeagueID, &t.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: team", match.ErrNotFound)
		}
		return nil, err
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	return &t, nil
}

func scanUser(row scanner) (*match.User, error) {
	var (
		u    match.User
		role string
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", match.ErrNotFound)
		}
		return nil, err
	}
	u.Role = match.Role(role)
	return &u, nil
}

// scanMatch returns sql.ErrNoRows unwrapped so callers can pick the not-found wording.
func scanMatch(row scanner) (*match.Match, error) {
	var (
		m                  match.Match
		matchDate, created int64
		grade              sql.NullFloat64
		gradeAt, overallAt sql.NullInt64
		overall, note      sql.NullString
		observerRep        sql.NullString
		mentorRep, tv      sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.UserReadableKey, &matchDate, &m.Stadium, &m.LeagueID, &m.HomeTeamID, &m.AwayTeamID,
		&m.RefereeID, &m.ObserverID, &m.ObserverSmsID, &grade, &gradeAt, &overall,
		&overallAt, &note, &observerRep, &mentorRep, &tv, &created,
	)
	if err != nil {
		return nil, err
	}
	m.MatchDate = time.Unix(matchDate, 0).UTC()
	m.CreatedAt = time.Unix(0, created).UTC()
	if grade.Valid {
		m.RefereeGrade = &grade.Float64
	}
	m.RefereeGradeAt = timePtr(gradeAt)
	m.OverallGrade = stringPtr(overall)
	m.OverallGradeAt = timePtr(overallAt)
	m.RefereeNote = stringPtr(note)
	m.ObserverReport = stringPtr(observerRep)
	m.MentorReport = stringPtr(mentorRep)
	m.TvReport = stringPtr(tv)
	return &m, nil
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
