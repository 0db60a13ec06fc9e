package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/raidroster/api/internal/infra"
)

type healthResponse struct {
	Status    string    `json:"Status"`
	Storage   string    `json:"Storage"`
	Timestamp time.Time `json:"Timestamp"`
}

// HealthHandler reports process and storage health; 503 when storage is unreachable.
func HealthHandler(store infra.Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "Healthy", Storage: "Healthy", Timestamp: time.Now().UTC()}
		if err := infra.HealthCheck(r.Context(), store); err != nil {
			logger.Error("health check failed", "error", err)
			resp.Status = "Unhealthy"
			resp.Storage = "Unhealthy"
			RespondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		RespondJSON(w, http.StatusOK, resp)
	}
}
