package httpserver

import (
	"encoding/json"
	"net/http"
)

// adminMetricsAuth protects the /metrics endpoint with an optional API key.
// If no key is configured, the endpoint is accessible without authentication.
// Otherwise requests must include "Authorization: Bearer {key}".
func adminMetricsAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "Bearer "+apiKey {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing admin API key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
