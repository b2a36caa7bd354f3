package admin_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/services/admin"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListUsers(ctx context.Context, page models.Page, role models.Role) ([]models.User, int, error) {
	args := m.Called(ctx, page, role)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.User), args.Int(1), args.Error(2)
}

func (m *RepoMock) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListAllSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.Subscription, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) ListAllPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *RepoMock) GetStats(ctx context.Context, now time.Time) (*models.Stats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

func newService(repo *RepoMock) *admin.Service {
	return admin.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		in   models.Page
		want models.Page
	}{
		{in: models.Page{}, want: models.Page{Page: 1, Limit: 20}},
		{in: models.Page{Page: 3, Limit: 5}, want: models.Page{Page: 3, Limit: 5}},
		{in: models.Page{Page: -1, Limit: 1000}, want: models.Page{Page: 1, Limit: 100}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, admin.NormalizePage(tt.in))
	}
}

func TestService_Users_Pagination(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListUsers", mock.Anything, models.Page{Page: 2, Limit: 20}, models.RoleStudent).
		Return([]models.User{{ID: "u-21"}}, 41, nil).Once()

	list, err := newService(repo).Users(context.Background(), models.Page{Page: 2}, models.RoleStudent)
	require.NoError(t, err)
	assert.Len(t, list.Users, 1)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 20, Total: 41, TotalPages: 3}, list.Pagination)
}

func TestService_UpdateRole(t *testing.T) {
	repo := new(RepoMock)
	repo.On("UpdateUserRole", mock.Anything, "u-1", models.RoleInstructor).Return(&models.User{ID: "u-1", Role: models.RoleInstructor}, nil).Once()
	repo.On("UpdateUserRole", mock.Anything, "missing", models.RoleAdmin).Return(nil, models.ErrNotFound).Once()
	svc := newService(repo)

	u, err := svc.UpdateRole(context.Background(), "u-1", models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, u.Role)

	_, err = svc.UpdateRole(context.Background(), "missing", models.RoleAdmin)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_Stats_UsesClock(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	stats := &models.Stats{}
	stats.Subscriptions.Active = 7

	repo := new(RepoMock)
	repo.On("GetStats", mock.Anything, now).Return(stats, nil).Once()

	got, err := newService(repo).WithClock(func() time.Time { return now }).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, got.Subscriptions.Active)
}
