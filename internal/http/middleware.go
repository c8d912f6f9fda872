package http

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/match"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middlewares into a single handler.
// The middlewares are applied in the order they are passed.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const (
	dryRunKey contextKey = "dryRun"
	userKey   contextKey = "user"
)

// paramsMiddleware handles common query parameters like 'verbose' and 'dry_run'.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("incoming request", "method", r.Method, "url", r.URL.Path)
		// Request-scoped verbose logging. The level is global, so concurrent
		// requests see it too until this one returns.
		if r.URL.Query().Get("verbose") == "true" {
			originalLevel := log.GetLevel()
			log.SetLevel(log.DebugLevel)
			defer log.SetLevel(originalLevel)
		}

		isDryRun := r.URL.Query().Get("dry_run") == "true"
		ctx := context.WithValue(r.Context(), dryRunKey, isDryRun)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func isDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(dryRunKey).(bool)
	return ok && dryRun
}

// authMiddleware verifies the bearer token and loads the caller into the context.
// A token whose role no longer matches the stored user is rejected.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		claims, err := s.Auth.Verify(raw)
		if err != nil {
			log.Debug("Rejected token", "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		user, err := s.Users.GetUser(claims.Subject)
		if err != nil || string(user.Role) != claims.Role {
			log.Warn("Token does not match a known user", "subject", claims.Subject, "role", claims.Role)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrInvalidToken.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), userKey, *user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole lets the request through only when the caller holds one of roles.
func requireRole(roles ...match.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r)
			if !ok || !slices.Contains(roles, user.Role) {
				writeError(w, match.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userFromContext(r *http.Request) (match.User, bool) {
	user, ok := r.Context().Value(userKey).(match.User)
	return user, ok
}
