package engine

import (
	"encoding/json"
	"net/http"
)

// jobResponse is the body of job trigger responses.
type jobResponse struct {
	Success bool   `json:"success"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// errorResponse is the body of every other failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
