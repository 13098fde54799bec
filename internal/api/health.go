package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
}

// HealthCheckHandler reports liveness only; it never contacts the identity provider.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "oidc-registration-test",
		Timestamp: time.Now().Unix(),
	})
}
