package biz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"oidc-registration-test/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdP struct {
	token       string
	exchangeErr error
	claims      auth.Claims
	userInfoErr error

	codes     []string
	userInfos []string
}

func (f *fakeIdP) ExchangeCode(_ context.Context, code string) (string, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeIdP) FetchUserInfo(_ context.Context, accessToken string) (auth.Claims, error) {
	f.userInfos = append(f.userInfos, accessToken)
	if f.userInfoErr != nil {
		return nil, f.userInfoErr
	}
	return f.claims, nil
}

type memRunRepo struct {
	mu      sync.Mutex
	runs    []Run
	saveErr error
}

func (m *memRunRepo) Save(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRunRepo) Get(_ context.Context, id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, ErrRunNotFound
}

func (m *memRunRepo) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memRunRepo) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validClaims() auth.Claims {
	return auth.Claims{"email": "jane@example.com", "name": "Jane", "sub": "user-1"}
}

func TestRunSuccess(t *testing.T) {
	idp := &fakeIdP{token: "tok-abc", claims: validClaims()}
	repo := &memRunRepo{}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	res, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", res.AccessToken)
	assert.Equal(t, "jane@example.com", res.Email)
	assert.Equal(t, "Jane", res.Name)
	assert.Equal(t, "user-1", res.Subject)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{"code-1"}, idp.codes)
	assert.Equal(t, []string{"tok-abc"}, idp.userInfos)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, res.RunID, run.ID)
	assert.True(t, run.Succeeded)
	assert.Equal(t, StageComplete, run.Stage)
	assert.Equal(t, "user-1", run.Subject)
	assert.Empty(t, run.Error)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestRunTokenExchangeFailureSkipsUserInfo(t *testing.T) {
	exchangeErr := errors.Join(auth.ErrTokenExchange, errors.New("invalid_grant"))
	idp := &fakeIdP{exchangeErr: exchangeErr}
	repo := &memRunRepo{}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	res, err := uc.Run(context.Background())
	require.ErrorIs(t, err, auth.ErrTokenExchange)
	assert.Nil(t, res)
	assert.Len(t, idp.codes, 1, "no retry")
	assert.Empty(t, idp.userInfos)

	require.Len(t, repo.runs, 1)
	assert.False(t, repo.runs[0].Succeeded)
	assert.Equal(t, StageTokenExchange, repo.runs[0].Stage)
	assert.Contains(t, repo.runs[0].Error, "invalid_grant")
}

func TestRunUserInfoFailure(t *testing.T) {
	idp := &fakeIdP{token: "tok", userInfoErr: auth.ErrUserInfoFetch}
	repo := &memRunRepo{}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	_, err := uc.Run(context.Background())
	require.ErrorIs(t, err, auth.ErrUserInfoFetch)
	require.Len(t, repo.runs, 1)
	assert.Equal(t, StageUserInfo, repo.runs[0].Stage)
}

func TestRunMissingClaim(t *testing.T) {
	for _, missing := range ReportClaims {
		t.Run(missing, func(t *testing.T) {
			claims := validClaims()
			delete(claims, missing)
			idp := &fakeIdP{token: "tok", claims: claims}
			repo := &memRunRepo{}
			uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

			res, err := uc.Run(context.Background())
			require.ErrorIs(t, err, auth.ErrClaimMissing)
			assert.Contains(t, err.Error(), missing)
			assert.Nil(t, res)
			require.Len(t, repo.runs, 1)
			assert.Equal(t, StageClaims, repo.runs[0].Stage)
		})
	}
}

func TestRunNeverRecordsAccessToken(t *testing.T) {
	idp := &fakeIdP{token: "very-secret-access-token", claims: auth.Claims{"sub": "u"}}
	repo := &memRunRepo{}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	_, err := uc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, repo.runs, 1)
	assert.NotContains(t, repo.runs[0].Error, "very-secret-access-token")
}

func TestRunSaveFailureKeepsOutcome(t *testing.T) {
	idp := &fakeIdP{token: "tok", claims: validClaims()}
	repo := &memRunRepo{saveErr: errors.New("disk full")}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	res, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
}

func TestRunWithoutRepo(t *testing.T) {
	idp := &fakeIdP{token: "tok", claims: validClaims()}
	uc := NewRegistrationUsecase(idp, nil, "code-1", discardLogger())

	_, err := uc.Run(context.Background())
	require.NoError(t, err)

	runs, err := uc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = uc.GetRun(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	idp := &fakeIdP{token: "tok", claims: validClaims()}
	repo := &memRunRepo{}
	uc := NewRegistrationUsecase(idp, repo, "code-1", discardLogger())

	first, err := uc.Run(context.Background())
	require.NoError(t, err)
	second, err := uc.Run(context.Background())
	require.NoError(t, err)

	runs, err := uc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].ID)
	assert.Equal(t, first.RunID, runs[1].ID)

	got, err := uc.GetRun(context.Background(), first.RunID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, got.ID)
}
