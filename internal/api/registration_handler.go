package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"oidc-registration-test/internal/biz"

	"github.com/gorilla/mux"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// RegistrationHandler serves the registration check report
type RegistrationHandler struct {
	service RegistrationService
}

// NewRegistrationHandler creates a RegistrationHandler
func NewRegistrationHandler(service RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// RegisterRoutes registers routes on the mux.Router
func (h *RegistrationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.report).Methods(http.MethodGet)
	r.HandleFunc("/runs", h.listRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}", h.getRun).Methods(http.MethodGet)
}

// report runs the authorization code round trip and renders the result.
// Every failure ends the request with a 500; nothing is retried.
func (h *RegistrationHandler) report(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunCheck(r.Context())
	if err != nil {
		msg := "registration check failed: " + err.Error()
		if id := RequestIDFromContext(r.Context()); id != "" {
			msg += " (request " + id + ")"
		}
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report); err != nil {
		http.Error(w, "failed to render report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// listRuns returns the run history
func (h *RegistrationHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit: " + v})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []RunInfo{}
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

// getRun returns one run
func (h *RegistrationHandler) getRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := h.service.GetRun(r.Context(), id)
	if errors.Is(err, biz.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, run)
}
