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

func NewServer(orch *orchestrator.Orchestrator, users Users, metricsSvc metrics.Metrics, metricsHandler http.Handler, deduplicator dedup.Deduplicator, auth *Authenticator, inboundToken string, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	server := &Server{
		Orchestrator:   orch,
		Users:          users,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Dedup:          deduplicator,
		Auth:           auth,
		InboundToken:   inboundToken,
		Location:       loc,
		Router:         chi.NewRouter(),
		validate:       validator.New(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	admin := requireRole(match.RoleAdmin)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Method(http.MethodPost, "/sms/inbound", Chain(s.InboundSmsHandler(), paramsMiddleware))

	s.Router.Route("/api", func(r chi.Router) {
		r.Use(paramsMiddleware, s.authMiddleware)

		r.Get("/matches", s.ListMatchesHandler())
		r.Method(http.MethodPost, "/matches", Chain(s.CreateMatchHandler(), admin))
		r.Method(http.MethodPost, "/matches/import", Chain(s.ImportMatchesHandler(), admin))

		r.Route("/matches/{id}", func(r chi.Router) {
			r.Get("/", s.GetMatchHandler())
			r.Method(http.MethodPut, "/", Chain(s.UpdateMatchHandler(), admin))
			r.Method(http.MethodDelete, "/", Chain(s.RemoveMatchHandler(), admin))
			r.Method(http.MethodPut, "/grade", Chain(s.RefereeGradeHandler(), requireRole(match.RoleAdmin, match.RoleObserver)))
			r.Method(http.MethodPut, "/overall-grade", Chain(s.OverallGradeHandler(), admin))
			r.Method(http.MethodPut, "/note", Chain(s.RefereeNoteHandler(), requireRole(match.RoleAdmin, match.RoleReferee)))

			r.Get("/reports/{type}", s.GetReportHandler())
			r.Put("/reports/{type}", s.UpdateReportHandler())
			r.Delete("/reports/{type}", s.RemoveReportHandler())
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
