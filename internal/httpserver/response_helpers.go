package httpserver

import (
	"encoding/json"
	"net/http"
)

// errorResponse writes a JSON {detail} body at the given status code,
// matching the error shape spec.md's callers expect (401/402/4xx/500
// all carry a "detail" field).
func errorResponse(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// writeJSON encodes body as the JSON response at the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent; the encoding error is dropped.
		return
	}
}
