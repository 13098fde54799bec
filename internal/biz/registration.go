package biz

import (
	"context"
	"log/slog"
	"time"

	"oidc-registration-test/internal/auth"

	"github.com/google/uuid"
)

// ReportClaims are the userinfo claims every report shows.
var ReportClaims = []string{"email", "name", "sub"}

// IdentityProvider performs the two calls of the authorization code round trip
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUserInfo(ctx context.Context, accessToken string) (auth.Claims, error)
}

// RegistrationResult is the data rendered for a successful run
type RegistrationResult struct {
	RunID       string
	AccessToken string
	Email       string
	Name        string
	Subject     string
}

// RegistrationUsecase drives one code-to-userinfo round trip per call
type RegistrationUsecase struct {
	idp    IdentityProvider
	runs   RunRepo
	code   string
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistrationUsecase creates a RegistrationUsecase.
// The same authorization code is exchanged on every Run.
func NewRegistrationUsecase(idp IdentityProvider, runs RunRepo, code string, logger *slog.Logger) *RegistrationUsecase {
	return &RegistrationUsecase{
		idp:    idp,
		runs:   runs,
		code:   code,
		logger: logger,
		now:    time.Now,
	}
}

// Run exchanges the code, fetches userinfo and checks the report claims.
// Each step runs only if the previous one succeeded; nothing is retried.
func (uc *RegistrationUsecase) Run(ctx context.Context) (*RegistrationResult, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: uc.now(),
	}
	logger := uc.logger.With("run_id", run.ID)

	result, err := uc.run(ctx, run)
	run.FinishedAt = uc.now()
	run.Succeeded = err == nil
	if err != nil {
		run.Error = err.Error()
		logger.Error("registration check failed", "stage", run.Stage, "error", err)
	} else {
		logger.Info("registration check passed", "sub", run.Subject, "email", run.Email,
			"duration", run.FinishedAt.Sub(run.StartedAt))
	}

	if uc.runs != nil {
		if saveErr := uc.runs.Save(ctx, run); saveErr != nil {
			logger.Warn("failed to record run", "error", saveErr)
		}
	}
	return result, err
}

func (uc *RegistrationUsecase) run(ctx context.Context, run *Run) (*RegistrationResult, error) {
	run.Stage = StageTokenExchange
	accessToken, err := uc.idp.ExchangeCode(ctx, uc.code)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("access token issued", "run_id", run.ID, "access_token", auth.MaskSecret(accessToken))

	run.Stage = StageUserInfo
	claims, err := uc.idp.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	run.Subject = claims.String("sub")
	run.Email = claims.String("email")

	run.Stage = StageClaims
	if err := claims.Require(ReportClaims...); err != nil {
		return nil, err
	}

	run.Stage = StageComplete
	return &RegistrationResult{
		RunID:       run.ID,
		AccessToken: accessToken,
		Email:       claims.String("email"),
		Name:        claims.String("name"),
		Subject:     claims.String("sub"),
	}, nil
}

// ListRuns returns recent runs, newest first
func (uc *RegistrationUsecase) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if uc.runs == nil {
		return nil, nil
	}
	return uc.runs.List(ctx, limit)
}

// GetRun returns a recorded run
func (uc *RegistrationUsecase) GetRun(ctx context.Context, id string) (*Run, error) {
	if uc.runs == nil {
		return nil, ErrRunNotFound
	}
	return uc.runs.Get(ctx, id)
}
