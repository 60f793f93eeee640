package middleware

import (
	"encoding/json"
	"net/http"

	restctx "github.com/dtroode/qubras-auth/internal/api/rest/context"
	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/model"
)

// StateReader exposes the controller snapshot.
type StateReader interface {
	State() model.State
}

// RequireSession rejects requests while no user is signed in and stores the
// signed in user's id in the request context.
type RequireSession struct {
	state  StateReader
	logger *logger.Logger
}

// NewRequireSession creates a new RequireSession middleware instance.
func NewRequireSession(state StateReader, logger *logger.Logger) *RequireSession {
	return &RequireSession{state: state, logger: logger}
}

// Handle wraps next.
func (m *RequireSession) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.state.State()
		if !s.Authenticated() {
			m.logger.Debug("HTTP request rejected: no session", "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"kind":    string(model.KindCredentials),
				"message": model.ErrNotAuthenticated.Error(),
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(restctx.WithUserID(r.Context(), s.User.ID)))
	})
}
