package orchestrator

import (
	"time"

	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/notifier"
	"github.com/mauv0809/refgrade/internal/store"
)

// Store defines the database operations required by the orchestrator.
type Store interface {
	GetTeam(id string) (*match.Team, error)
	GetUser(id string) (*match.User, error)
	GetLeague(id string) (*match.League, error)
	FindTeamByName(leagueID, name string) (*match.Team, error)
	FindUserByName(fullName string, role match.Role) (*match.User, error)
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
	ListMatches(filter store.MatchFilter) ([]*match.Match, error)
}

// Notifier defines the notification operations required by the orchestrator.
type Notifier interface {
	notifier.Notifier
}
