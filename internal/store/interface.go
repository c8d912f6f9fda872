package store

import (
	"time"

	"github.com/mauv0809/refgrade/internal/match"
)

// Store defines the persistence operations for leagues, teams, users and matches.
// Lookups that address a single record return an error wrapping match.ErrNotFound
// when it does not exist. Predicate searches (FindConflicting, FindUngradedByKey)
// return nil without an error when nothing matches.
type Store interface {
	CreateLeague(name string) (*match.League, error)
	CreateTeam(leagueID, name string) (*match.Team, error)
	CreateUser(user match.User) (*match.User, error)
	GetLeague(id string) (*match.League, error)
	GetTeam(id string) (*match.Team, error)
	GetUser(id string) (*match.User, error)
	FindLeagueByName(name string) (*match.League, error)
	FindTeamByName(leagueID, name string) (*match.Team, error)
	FindUserByName(fullName string, role match.Role) (*match.User, error)
	ListLeagues() ([]match.League, error)
	ListTeams(leagueID string) ([]match.Team, error)
	ListUsers() ([]match.User, error)
	LeagueOrdinal(leagueID string) (int, error)
	TeamOrdinal(leagueID, teamID string) (int, error)

	GetMatch(id string) (*match.Match, error)
	FindMatchByKey(key string) (*match.Match, error)
	FindUngradedByKey(key, excludeID string) (*match.Match, error)
	FindConflicting(from, to time.Time, teamIDs []string, excludeID string) (*match.Match, error)
	SaveMatch(m *match.Match) error
	DeleteMatch(id string) error
	ListMatches(filter MatchFilter) ([]*match.Match, error)
}
