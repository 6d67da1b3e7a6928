package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes the standard error envelope {"detail": message}.
func WriteDetail(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"detail": message,
	})
}

// PathSuffix extracts the single trailing path element after prefix.
// Returns "" when the element is missing or nested.
func PathSuffix(path, prefix string) string {
	suffix := strings.TrimPrefix(path, prefix)
	suffix = strings.Trim(suffix, "/")
	if strings.Contains(suffix, "/") {
		return ""
	}
	return suffix
}
