package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/refgrade/internal/importer"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/store"
)

const (
	maxUploadSize    = 10 << 20
	inboundTokenHdr  = "X-Inbound-Token"
	filterDateLayout = "2006-01-02"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// InboundSmsHandler receives the gateway's callback for an observer reply.
// Repeated deliveries of the same message id are acknowledged without processing,
// unless the earlier delivery failed.
func (s *Server) InboundSmsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.InboundToken != "" {
			token := r.Header.Get(inboundTokenHdr)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(s.InboundToken)) != 1 {
				log.Warn("Inbound sms with bad token", "remote", r.RemoteAddr)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrInvalidToken.Error()})
				return
			}
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, fmt.Errorf("%w: malformed form: %v", match.ErrValidation, err))
			return
		}
		req := inboundRequest{
			ID:     r.PostForm.Get("id"),
			Msg:    r.PostForm.Get("msg"),
			Sender: r.PostForm.Get("sender"),
		}
		if err := s.check(req); err != nil {
			writeError(w, err)
			return
		}

		seen, err := s.Dedup.Seen(r.Context(), req.ID)
		if err != nil {
			log.Error("Dedup check failed, processing anyway", "id", req.ID, "error", err)
		}
		if seen {
			log.Info("Duplicate inbound sms ignored", "id", req.ID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}

		reply, err := s.Orchestrator.HandleGradeMessage(r.Context(), match.GradeMessage{
			ID:                req.ID,
			Msg:               req.Msg,
			SenderPhoneNumber: req.Sender,
		})
		if err != nil {
			if ferr := s.Dedup.Forget(r.Context(), req.ID); ferr != nil {
				log.Error("Failed to release dedup key, redelivery will be dropped", "id", req.ID, "error", ferr)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}
}

// ListMatchesHandler supports the league, official, from and to query
// parameters. Dates are YYYY-MM-DD in the league timezone or RFC 3339.
func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		q := r.URL.Query()
		filter := store.MatchFilter{
			LeagueID:   q.Get("league"),
			OfficialID: q.Get("official"),
		}
		if q.Get("mine") == "true" {
			filter.OfficialID = user.ID
		}
		var err error
		if filter.From, err = s.parseFilterDate(q.Get("from")); err != nil {
			writeError(w, err)
			return
		}
		if filter.To, err = s.parseFilterDate(q.Get("to")); err != nil {
			writeError(w, err)
			return
		}
		views, err := s.Orchestrator.List(r.Context(), filter, user)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		view, err := s.Orchestrator.Get(r.Context(), chi.URLParam(r, "id"), user)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req draftRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.Orchestrator.Create(r.Context(), req.draft(), isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) UpdateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req draftRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.Orchestrator.Update(r.Context(), chi.URLParam(r, "id"), req.draft(), isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) RemoveMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Orchestrator.Remove(r.Context(), chi.URLParam(r, "id"), isDryRunFromContext(r)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportMatchesHandler takes a multipart upload with a "file" part and a "league" field.
func (s *Server) ImportMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, fmt.Errorf("%w: malformed upload: %v", match.ErrValidation, err))
			return
		}
		leagueID := r.FormValue("league")
		if leagueID == "" {
			writeError(w, fmt.Errorf("%w: league is required", match.ErrValidation))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, fmt.Errorf("%w: file is required", match.ErrValidation))
			return
		}
		defer file.Close()

		format, err := importer.FormatFromFilename(header.Filename)
		if err != nil {
			writeError(w, err)
			return
		}
		rows, err := importer.Parse(file, format)
		if err != nil {
			if !errors.Is(err, match.ErrValidation) {
				err = fmt.Errorf("%w: %v", match.ErrValidation, err)
			}
			writeError(w, err)
			return
		}
		log.Info("Importing schedule", "file", header.Filename, "league", leagueID, "rows", len(rows))
		created, err := s.Orchestrator.Import(r.Context(), leagueID, rows, isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, importResponse{Imported: len(created), Matches: created})
	}
}

// RefereeGradeHandler lets an admin or the match's own observer enter the grade.
func (s *Server) RefereeGradeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		id := chi.URLParam(r, "id")
		var req gradeRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if user.Role == match.RoleObserver {
			view, err := s.Orchestrator.Get(r.Context(), id, user)
			if err != nil {
				writeError(w, err)
				return
			}
			if view.ObserverID != user.ID {
				writeError(w, fmt.Errorf("%w: not the observer of match %s", match.ErrForbidden, id))
				return
			}
		}
		m, err := s.Orchestrator.SetRefereeGrade(r.Context(), id, *req.Grade, isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) OverallGradeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overallGradeRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.Orchestrator.SetOverallGrade(r.Context(), chi.URLParam(r, "id"), req.Grade, isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// RefereeNoteHandler lets an admin or the match's own referee write the note.
func (s *Server) RefereeNoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		id := chi.URLParam(r, "id")
		var req noteRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		view, err := s.Orchestrator.Get(r.Context(), id, user)
		if err != nil {
			writeError(w, err)
			return
		}
		if user.Role == match.RoleReferee && view.RefereeID != user.ID {
			writeError(w, fmt.Errorf("%w: not the referee of match %s", match.ErrForbidden, id))
			return
		}
		if _, err := s.Orchestrator.SetRefereeNote(r.Context(), id, req.Note); err != nil {
			writeError(w, err)
			return
		}
		view, err = s.Orchestrator.Get(r.Context(), id, user)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) GetReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		rt, err := match.ParseReportType(chi.URLParam(r, "type"))
		if err != nil {
			writeError(w, err)
			return
		}
		key, err := s.Orchestrator.GetKeyForReport(r.Context(), user, chi.URLParam(r, "id"), rt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reportResponse{Type: string(rt), Key: key})
	}
}

func (s *Server) UpdateReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		rt, err := match.ParseReportType(chi.URLParam(r, "type"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req reportRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if _, err := s.Orchestrator.UpdateReportData(r.Context(), user, chi.URLParam(r, "id"), rt, req.Key); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reportResponse{Type: string(rt), Key: req.Key})
	}
}

func (s *Server) RemoveReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r)
		rt, err := match.ParseReportType(chi.URLParam(r, "type"))
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := s.Orchestrator.RemoveReport(r.Context(), user, chi.URLParam(r, "id"), rt); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) parseFilterDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(filterDateLayout, raw, s.Location); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", match.ErrValidation, raw)
	}
	return t, nil
}
