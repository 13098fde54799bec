package api

import (
	"context"
	"time"
)

// RegistrationReport is what the report page shows
type RegistrationReport struct {
	RunID       string
	AccessToken string
	Email       string
	Name        string
	Sub         string
}

// RunInfo is one entry of the run history
type RunInfo struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	Succeeded  bool      `json:"succeeded"`
	Subject    string    `json:"sub,omitempty"`
	Email      string    `json:"email,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// ListRunsResponse run history response
type ListRunsResponse struct {
	Runs []RunInfo `json:"runs"`
}

// RegistrationService is implemented by the service layer
type RegistrationService interface {
	RunCheck(ctx context.Context) (*RegistrationReport, error)
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	GetRun(ctx context.Context, id string) (*RunInfo, error)
}
