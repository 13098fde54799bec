package service

import (
	"context"

	"oidc-registration-test/internal/api"
	"oidc-registration-test/internal/biz"
)

// registrationService adapts the registration use case to the api layer
type registrationService struct {
	uc *biz.RegistrationUsecase
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(uc *biz.RegistrationUsecase) api.RegistrationService {
	return &registrationService{uc: uc}
}

// RunCheck performs one registration check and converts the result to a DTO
func (s *registrationService) RunCheck(ctx context.Context) (*api.RegistrationReport, error) {
	res, err := s.uc.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &api.RegistrationReport{
		RunID:       res.RunID,
		AccessToken: res.AccessToken,
		Email:       res.Email,
		Name:        res.Name,
		Sub:         res.Subject,
	}, nil
}

// ListRuns returns recent runs as DTOs
func (s *registrationService) ListRuns(ctx context.Context, limit int) ([]api.RunInfo, error) {
	runs, err := s.uc.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	infos := make([]api.RunInfo, 0, len(runs))
	for i := range runs {
		infos = append(infos, toRunInfo(&runs[i]))
	}
	return infos, nil
}

// GetRun returns one run as a DTO
func (s *registrationService) GetRun(ctx context.Context, id string) (*api.RunInfo, error) {
	run, err := s.uc.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	info := toRunInfo(run)
	return &info, nil
}

func toRunInfo(run *biz.Run) api.RunInfo {
	return api.RunInfo{
		ID:         run.ID,
		Stage:      string(run.Stage),
		Succeeded:  run.Succeeded,
		Subject:    run.Subject,
		Email:      run.Email,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DurationMS: run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	}
}
