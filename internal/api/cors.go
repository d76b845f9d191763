package api

import (
	"net/http"
	"strings"
)

// withCORS grants cross-origin access to origins on the configured
// allow-list. Entries of the form "https://*.example.com" match any
// subdomain; everything else is an exact match.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cors {
		if allowed == "*" || allowed == origin {
			return true
		}
		if scheme, host, ok := strings.Cut(allowed, "://"); ok && strings.HasPrefix(host, "*.") {
			if suffix, found := strings.CutPrefix(origin, scheme+"://"); found {
				if strings.HasSuffix(suffix, host[1:]) && !strings.Contains(strings.TrimSuffix(suffix, host[1:]), "/") {
					return true
				}
			}
		}
	}
	return false
}
