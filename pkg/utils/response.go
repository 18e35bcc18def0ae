package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error body. Internal exception prefixes are stripped
// so the client sees a clean, user-presentable message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": Sanitize(message)})
}

// Sanitize removes internal error prefixes from a message before it is
// surfaced to a client.
func Sanitize(message string) string {
	for _, prefix := range []string{"ERROR: ", "pq: ", "pgx: "} {
		message = strings.TrimPrefix(message, prefix)
	}
	return message
}
