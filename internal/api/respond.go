package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rflorenc/intune-workbench/internal/assistant"
	"github.com/rflorenc/intune-workbench/internal/graph"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case graph.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, assistant.ErrTooFewItems):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body into dest. An empty body leaves
// dest untouched.
func decodeBody(r *http.Request, dest interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
