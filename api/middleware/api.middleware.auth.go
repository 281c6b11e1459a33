package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"classhub/internal/errors"
	"classhub/internal/models"
	"classhub/internal/session"
)

// HeaderSessionID is the custom header the dashboard sends its token in.
const HeaderSessionID = "X-Session-Id"

type contextKey string

const sessionKey contextKey = "session"

// SessionMiddleware gates the operator API on the session registry.
type SessionMiddleware struct {
	sessions session.Store
}

// NewSessionMiddleware creates the auth gate.
func NewSessionMiddleware(sessions session.Store) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Authenticate validates the token and adds the session to the request
// context. Missing, unknown and expired tokens are all 401; the client
// must log in again.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := Token(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no session provided", nil))
			return
		}

		sess, err := m.sessions.Validate(r.Context(), token)
		if err != nil {
			handleError(w, errors.NewInternalError("session check failed", err))
			return
		}
		if sess == nil {
			handleError(w, errors.NewAuthError("invalid or expired session", nil))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Token extracts the session token from the request header.
func Token(r *http.Request) string {
	return r.Header.Get(HeaderSessionID)
}

// SessionFrom returns the authenticated session stored by Authenticate,
// or nil on unauthenticated routes.
func SessionFrom(r *http.Request) *models.Session {
	sess, _ := r.Context().Value(sessionKey).(*models.Session)
	return sess
}

func handleError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(map[string]string{"error": apiErr.Message})
}
