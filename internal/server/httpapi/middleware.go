package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropvault/dropvault/internal/server/services"
)

type ctxKey string

const sessionKey ctxKey = "session"

// requireSession extracts the bearer token, verifies it through the gate, and
// stores the resulting session on the request context. Handlers behind it can
// assume sessionFrom never returns nil.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r)
		if credential == "" {
			s.writeError(w, r, http.StatusUnauthorized, "access token required")
			return
		}

		session, err := s.gate.AuthorizeOwnerAction(r.Context(), credential)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *services.Session {
	session, _ := r.Context().Value(sessionKey).(*services.Session)
	return session
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
