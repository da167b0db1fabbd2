package handlers

import (
	"encoding/json"
	"net/http"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=handlers
//go:generate mockgen -source=transactions.go -destination=mock_transactions.go -package=handlers
//go:generate mockgen -source=health.go -destination=mock_health.go -package=handlers

const internalServerError = "Internal server error"

// ErrorResponse represents an error response
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: user not found
	Error string `json:"error"`
}

// OKResponse acknowledges an operation without a payload
// swagger:model OKResponse
type OKResponse struct {
	// Always true
	// default: true
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
