package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mauv0809/refgrade/internal/dedup"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/orchestrator"
)

// Users resolves the caller named by a token.
type Users interface {
	GetUser(id string) (*match.User, error)
}

type Server struct {
	Orchestrator   *orchestrator.Orchestrator
	Users          Users
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Dedup          dedup.Deduplicator
	Auth           *Authenticator
	InboundToken   string
	Location       *time.Location
	Router         chi.Router
	validate       *validator.Validate
}

type draftRequest struct {
	MatchDate  time.Time `json:"match_date" validate:"required"`
	Stadium    string    `json:"stadium" validate:"required,max=200"`
	LeagueID   string    `json:"league_id" validate:"required"`
	HomeTeamID string    `json:"home_team_id" validate:"required"`
	AwayTeamID string    `json:"away_team_id" validate:"required,nefield=HomeTeamID"`
	RefereeID  string    `json:"referee_id" validate:"required"`
	ObserverID string    `json:"observer_id" validate:"required"`
}

func (r draftRequest) draft() match.Draft {
	return match.Draft{
		MatchDate:  r.MatchDate,
		Stadium:    r.Stadium,
		LeagueID:   r.LeagueID,
		HomeTeamID: r.HomeTeamID,
		AwayTeamID: r.AwayTeamID,
		RefereeID:  r.RefereeID,
		ObserverID: r.ObserverID,
	}
}

type gradeRequest struct {
	Grade *float64 `json:"grade" validate:"required"`
}

type overallGradeRequest struct {
	Grade string `json:"grade" validate:"required,max=50"`
}

type noteRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type reportRequest struct {
	Key string `json:"key" validate:"required,max=500"`
}

type inboundRequest struct {
	ID     string `validate:"required"`
	Msg    string `validate:"required"`
	Sender string `validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type reportResponse struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type importResponse struct {
	Imported int            `json:"imported"`
	Matches  []*match.Match `json:"matches"`
}
