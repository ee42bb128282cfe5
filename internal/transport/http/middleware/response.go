package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a JSON error envelope with the correct Content-Type.
// Middleware cannot reach the handler package's envelope helpers without an
// import cycle, so it carries its own.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
