package biz

import (
	"context"
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// Stage names the step that ended a run.
type Stage string

const (
	StageTokenExchange Stage = "token_exchange"
	StageUserInfo      Stage = "userinfo"
	StageClaims        Stage = "claims"
	StageComplete      Stage = "complete"
)

// Run is the recorded outcome of one registration check.
// Access tokens are never part of it.
type Run struct {
	ID         string
	Stage      Stage
	Succeeded  bool
	Subject    string
	Email      string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunRepo stores run outcomes
type RunRepo interface {
	// Save records a finished run
	Save(ctx context.Context, run *Run) error
	// Get returns a single run by ID
	Get(ctx context.Context, id string) (*Run, error)
	// List returns at most limit runs, newest first
	List(ctx context.Context, limit int) ([]Run, error)
	// Close closes the repository
	Close() error
}
