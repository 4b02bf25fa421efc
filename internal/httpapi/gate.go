package httpapi

import (
	"net"
	"net/http"
	"strings"
)

// clientIP extracts the remote IP without a port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// withBanGate rejects requests from banned origins before anything else
// runs. A store failure fails closed with 503; it is never treated as
// "not banned".
func (s *Server) withBanGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		banned, err := s.Registry.IsOriginBanned(r.Context(), clientIP(r))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if banned {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
