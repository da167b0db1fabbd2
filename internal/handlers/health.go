package handlers

import (
	"context"
	"net/http"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

// Pinger checks connectivity to the database.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse reports service health
// swagger:model HealthResponse
type HealthResponse struct {
	// ok or unavailable
	// default: ok
	Status string `json:"status"`
}

// NewHealthHandler returns an HTTP handler reporting whether the database is reachable.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse "Database reachable"
// @Failure 503 {object} handlers.HealthResponse "Database unreachable"
// @Router /healthz [get]
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.FromContext(r.Context()).Errorw("database ping failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
