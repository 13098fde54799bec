package api

import (
	"log/slog"

	"github.com/gorilla/mux"
)

// NewRouter creates the router and registers every handler
func NewRouter(registrationHandler *RegistrationHandler, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(logger))

	r.HandleFunc("/health", HealthCheckHandler).Methods("GET")
	registrationHandler.RegisterRoutes(r)

	return r
}
