package match

import "time"

// HiddenObserver replaces the observer's name before the match has been played.
const HiddenObserver = "hidden"

// View is the presentational form of a match.
type View struct {
	ID              string     `json:"id"`
	UserReadableKey string     `json:"user_readable_key"`
	MatchDate       time.Time  `json:"match_date"`
	Stadium         string     `json:"stadium"`
	LeagueID        string     `json:"league_id"`
	HomeTeamID      string     `json:"home_team_id"`
	HomeTeam        string     `json:"home_team"`
	AwayTeamID      string     `json:"away_team_id"`
	AwayTeam        string     `json:"away_team"`
	RefereeID       string     `json:"referee_id"`
	Referee         string     `json:"referee"`
	ObserverID      string     `json:"observer_id,omitempty"`
	Observer        string     `json:"observer"`
	RefereeGrade    *float64   `json:"referee_grade,omitempty"`
	RefereeGradeAt  *time.Time `json:"referee_grade_date,omitempty"`
	OverallGrade    *string    `json:"overall_grade,omitempty"`
	OverallGradeAt  *time.Time `json:"overall_grade_date,omitempty"`
	RefereeNote     *string    `json:"referee_note,omitempty"`
	HasObserverSms  bool       `json:"has_pending_sms"`
	Reports         []string   `json:"reports"`
}

// Project resolves the officials and teams of m against the supplied lookups.
// When hideObserver is set and the match is still in the future, the observer
// stays anonymous.
func Project(m *Match, users map[string]User, teams map[string]Team, hideObserver bool, now time.Time) View {
	v := View{
		ID:              m.ID,
		UserReadableKey: m.UserReadableKey,
		MatchDate:       m.MatchDate,
		Stadium:         m.Stadium,
		LeagueID:        m.LeagueID,
		HomeTeamID:      m.HomeTeamID,
		HomeTeam:        teams[m.HomeTeamID].Name,
		AwayTeamID:      m.AwayTeamID,
		AwayTeam:        teams[m.AwayTeamID].Name,
		RefereeID:       m.RefereeID,
		ObserverID:      m.ObserverID,
		RefereeGrade:    m.RefereeGrade,
		RefereeGradeAt:  m.RefereeGradeAt,
		OverallGrade:    m.OverallGrade,
		OverallGradeAt:  m.OverallGradeAt,
		RefereeNote:     m.RefereeNote,
		HasObserverSms:  m.ObserverSmsID != "",
		Reports:         []string{},
	}
	if u, ok := users[m.RefereeID]; ok {
		v.Referee = u.FullName()
	}
	if u, ok := users[m.ObserverID]; ok {
		v.Observer = u.FullName()
	}
	if hideObserver && m.MatchDate.After(now) {
		v.ObserverID = ""
		v.Observer = HiddenObserver
	}
	for _, rt := range ReportTypes() {
		if key, _ := m.ReportKey(rt); key != nil {
			v.Reports = append(v.Reports, string(rt))
		}
	}
	return v
}
