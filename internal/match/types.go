package match

import (
	"fmt"
	"time"
)

// Match is a scheduled fixture with its officials and grading state.
type Match struct {
	ID              string     `json:"id"`
	UserReadableKey string     `json:"user_readable_key"`
	MatchDate       time.Time  `json:"match_date"`
	Stadium         string     `json:"stadium"`
	LeagueID        string     `json:"league_id"`
	HomeTeamID      string     `json:"home_team_id"`
	AwayTeamID      string     `json:"away_team_id"`
	RefereeID       string     `json:"referee_id"`
	ObserverID      string     `json:"observer_id"`
	ObserverSmsID   string     `json:"observer_sms_id"`
	RefereeGrade    *float64   `json:"referee_grade,omitempty"`
	RefereeGradeAt  *time.Time `json:"referee_grade_date,omitempty"`
	OverallGrade    *string    `json:"overall_grade,omitempty"`
	OverallGradeAt  *time.Time `json:"overall_grade_date,omitempty"`
	RefereeNote     *string    `json:"referee_note,omitempty"`
	ObserverReport  *string    `json:"observer_report_key,omitempty"`
	MentorReport    *string    `json:"mentor_report_key,omitempty"`
	TvReport        *string    `json:"tv_report_key,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasTeam reports whether teamID plays in the match on either side.
func (m *Match) HasTeam(teamID string) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

// Graded reports whether a referee grade has been entered.
func (m *Match) Graded() bool {
	return m.RefereeGrade != nil
}

// Role is the authority a user acts with.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleObserver Role = "observer"
	RoleReferee  Role = "referee"
	RoleMentor   Role = "mentor"
)

// Roles lists every role known to the permission matrix.
func Roles() []Role {
	return []Role{RoleAdmin, RoleObserver, RoleReferee, RoleMentor}
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// User is an official or an operator of the league.
type User struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Phone     string `json:"phone" yaml:"phone"`
	Role      Role   `json:"role" yaml:"role"`
}

// FullName is the name shown in match views and matched by bulk imports.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// League groups teams; its position among all leagues feeds the match key.
type League struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Team belongs to exactly one league.
type Team struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GradeMessage is the raw payload of an inbound SMS.
type GradeMessage struct {
	ID                string `json:"id"`
	Msg               string `json:"msg"`
	SenderPhoneNumber string `json:"sender"`
}

// Draft is the schedulable part of a match: when, where, who plays and who officiates.
type Draft struct {
	MatchDate  time.Time `json:"match_date" validate:"required"`
	Stadium    string    `json:"stadium" validate:"required"`
	LeagueID   string    `json:"league_id" validate:"required"`
	HomeTeamID string    `json:"home_team_id" validate:"required"`
	AwayTeamID string    `json:"away_team_id" validate:"required,nefield=HomeTeamID"`
	RefereeID  string    `json:"referee_id" validate:"required"`
	ObserverID string    `json:"observer_id" validate:"required"`
}
