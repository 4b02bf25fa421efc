package httpapi

import (
	"context"
	"net/http"
	"strings"

	"filevault/internal/db"
)

type ctxKey string

const ctxUser ctxKey = "user"

// bearerToken pulls the API token from Authorization: Bearer or the
// X-Api-Key header.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Api-Key"))
}

// withUser resolves the caller's token to an account. A store failure is
// 503, not a 401: degraded lookups must not masquerade as bad credentials.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		u, ok, err := s.Registry.ResolveToken(r.Context(), tok)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxUser, u)))
	}
}

// userFrom returns the account placed in the context by withUser.
func userFrom(r *http.Request) *db.User {
	u, _ := r.Context().Value(ctxUser).(*db.User)
	return u
}
