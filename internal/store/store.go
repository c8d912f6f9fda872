package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/refgrade/internal/match"
)

// New creates a new Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

const matchColumns = `id, user_readable_key, match_date, stadium, league_id, home_team_id, away_team_id,
	referee_id, observer_id, observer_sms_id, referee_grade, referee_grade_date, overall_grade,
	overall_grade_date, referee_note, observer_report_key, mentor_report_key, tv_report_key, created_at`

func (s *store) CreateLeague(name string) (*match.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &match.League{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := s.db.Exec(`INSERT INTO leagues (id, name, created_at) VALUES (?, ?, ?)`,
		l.ID, l.Name, l.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert league: %w", err)
	}
	return l, nil
}

func (s *store) CreateTeam(leagueID, name string) (*match.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &match.Team{ID: uuid.NewString(), LeagueID: leagueID, Name: name, CreatedAt: time.Now().UTC()}
	_, err := s.db.Exec(`INSERT INTO teams (id, league_id, name, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.LeagueID, t.Name, t.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert team: %w", err)
	}
	return t, nil
}

// CreateUser inserts user, generating an id when it has none.
func (s *store) CreateUser(user match.User) (*match.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO users (id, first_name, last_name, phone, role) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.Phone, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *store) GetLeague(id string) (*match.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanLeague(s.db.QueryRow(`SELECT id, name, created_at FROM leagues WHERE id = ?`, id))
}

func (s *store) FindLeagueByName(name string) (*match.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanLeague(s.db.QueryRow(`SELECT id, name, created_at FROM leagues WHERE name = ? ORDER BY created_at, id LIMIT 1`, name))
}

func (s *store) GetTeam(id string) (*match.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanTeam(s.db.QueryRow(`SELECT id, league_id, name, created_at FROM teams WHERE id = ?`, id))
}

// FindTeamByName looks the team up within a league, ignoring case.
func (s *store) FindTeamByName(leagueID, name string) (*match.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanTeam(s.db.QueryRow(`
		SELECT id, league_id, name, created_at FROM teams
		WHERE league_id = ? AND lower(name) = lower(?)
		ORDER BY created_at, id LIMIT 1`, leagueID, strings.TrimSpace(name)))
}

func (s *store) GetUser(id string) (*match.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRow(`SELECT id, first_name, last_name, phone, role FROM users WHERE id = ?`, id))
}

// FindUserByName matches "First Last" ignoring case. An empty role matches any role.
func (s *store) FindUserByName(fullName string, role match.Role) (*match.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRow(`
		SELECT id, first_name, last_name, phone, role FROM users
		WHERE lower(first_name || ' ' || last_name) = lower(?) AND (? = '' OR role = ?)
		ORDER BY id LIMIT 1`, strings.Join(strings.Fields(fullName), " "), string(role), string(role)))
}

func (s *store) ListLeagues() ([]match.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, created_at FROM leagues ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leagues []match.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, *l)
	}
	return leagues, rows.Err()
}

// ListTeams returns the teams of leagueID in roster order, or every team when leagueID is empty.
func (s *store) ListTeams(leagueID string) ([]match.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, league_id, name, created_at FROM teams
		WHERE (? = '' OR league_id = ?)
		ORDER BY created_at, id`, leagueID, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []match.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (s *store) ListUsers() ([]match.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, first_name, last_name, phone, role FROM users ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []match.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// LeagueOrdinal is the zero-based position of the league ordered by creation.
func (s *store) LeagueOrdinal(leagueID string) (int, error) {
	leagues, err := s.ListLeagues()
	if err != nil {
		return 0, err
	}
	for i, l := range leagues {
		if l.ID == leagueID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: league %s", match.ErrNotFound, leagueID)
}

// TeamOrdinal is the zero-based position of the team within its league's roster.
func (s *store) TeamOrdinal(leagueID, teamID string) (int, error) {
	teams, err := s.ListTeams(leagueID)
	if err != nil {
		return 0, err
	}
	for i, t := range teams {
		if t.ID == teamID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: team %s in league %s", match.ErrNotFound, teamID, leagueID)
}

func (s *store) GetMatch(id string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s", match.ErrNotFound, id)
	}
	return m, err
}

// FindMatchByKey resolves an inbound key. Ungraded matches win, then the oldest.
func (s *store) FindMatchByKey(key string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRow(`
		SELECT `+matchColumns+` FROM matches
		WHERE user_readable_key = ?
		ORDER BY (referee_grade IS NOT NULL), match_date, created_at, id
		LIMIT 1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match key %s", match.ErrNotFound, key)
	}
	return m, err
}

func (s *store) FindUngradedByKey(key, excludeID string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRow(`
		SELECT `+matchColumns+` FROM matches
		WHERE user_readable_key = ? AND referee_grade IS NULL AND id != ?
		LIMIT 1`, key, excludeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// FindConflicting returns a match in [from, to) involving any of teamIDs on either side.
func (s *store) FindConflicting(from, to time.Time, teamIDs []string, excludeID string) (*match.Match, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(teamIDs)), ",")
	args := []any{from.Unix(), to.Unix(), excludeID}
	for _, id := range teamIDs {
		args = append(args, id)
	}
	for _, id := range teamIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM matches
		WHERE match_date >= ? AND match_date < ? AND id != ?
		AND (home_team_id IN (%s) OR away_team_id IN (%s))
		ORDER BY match_date LIMIT 1`, matchColumns, placeholders, placeholders)

	m, err := scanMatch(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// SaveMatch inserts the match or replaces every mutable column of an existing one.
func (s *store) SaveMatch(m *match.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_readable_key = excluded.user_readable_key,
			match_date = excluded.match_date,
			stadium = excluded.stadium,
			league_id = excluded.league_id,
			home_team_id = excluded.home_team_id,
			away_team_id = excluded.away_team_id,
			referee_id = excluded.referee_id,
			observer_id = excluded.observer_id,
			observer_sms_id = excluded.observer_sms_id,
			referee_grade = excluded.referee_grade,
			referee_grade_date = excluded.referee_grade_date,
			overall_grade = excluded.overall_grade,
			overall_grade_date = excluded.overall_grade_date,
			referee_note = excluded.referee_note,
			observer_report_key = excluded.observer_report_key,
			mentor_report_key = excluded.mentor_report_key,
			tv_report_key = excluded.tv_report_key`,
		m.ID, m.UserReadableKey, m.MatchDate.Unix(), m.Stadium, m.LeagueID, m.HomeTeamID, m.AwayTeamID,
		m.RefereeID, m.ObserverID, m.ObserverSmsID, nullFloat(m.RefereeGrade), nullTime(m.RefereeGradeAt),
		nullString(m.OverallGrade), nullTime(m.OverallGradeAt), nullString(m.RefereeNote),
		nullString(m.ObserverReport), nullString(m.MentorReport), nullString(m.TvReport), m.CreatedAt.UnixNano(),
	)
	if err != nil {
		log.Error("Failed to save match", "matchID", m.ID, "error", err)
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

func (s *store) DeleteMatch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: match %s", match.ErrNotFound, id)
	}
	return nil
}

func (s *store) ListMatches(filter MatchFilter) ([]*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.LeagueID != "" {
		where = append(where, "league_id = ?")
		args = append(args, filter.LeagueID)
	}
	if filter.OfficialID != "" {
		where = append(where, "(referee_id = ? OR observer_id = ?)")
		args = append(args, filter.OfficialID, filter.OfficialID)
	}
	if !filter.From.IsZero() {
		where = append(where, "match_date >= ?")
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		where = append(where, "match_date < ?")
		args = append(args, filter.To.Unix())
	}
	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY match_date, created_at, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
