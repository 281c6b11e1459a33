package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classhub/internal/errors"
	"classhub/internal/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateRejectsWithJSONBody(t *testing.T) {
	m := NewSessionMiddleware(session.NewMemoryStore(time.Hour))
	handler := m.Authenticate(okHandler())

	cases := []struct {
		name      string
		token     string
		wantError string
	}{
		{"missing token", "", "no session provided"},
		{"unknown token", "bogus", "invalid or expired session"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
			if tc.token != "" {
				req.Header.Set(HeaderSessionID, tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v (%q)", err, rec.Body.String())
			}
			if body["error"] != tc.wantError {
				t.Errorf("error = %q, want %q", body["error"], tc.wantError)
			}
		})
	}
}

func TestAuthenticatePassesSessionThrough(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	sess, err := store.Create(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}

	m := NewSessionMiddleware(store)
	var gotUsername string
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFrom(r); s != nil {
			gotUsername = s.Username
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set(HeaderSessionID, sess.Token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUsername != "admin" {
		t.Errorf("session username = %q, want admin", gotUsername)
	}
}

func TestHandleErrorEscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, errors.NewAuthError(`token "abc" rejected`, nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v (%q)", err, rec.Body.String())
	}
	if body["error"] != `token "abc" rejected` {
		t.Errorf("error = %q", body["error"])
	}
}
