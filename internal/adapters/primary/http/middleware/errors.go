package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the same {error, code} body the API error handler uses.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
