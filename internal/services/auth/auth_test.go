package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/lib/jwt"
	"github.com/magabrotheeeer/omniclass/internal/lib/password"
	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/services/auth"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, models.User) *models.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

type TokenStoreMock struct {
	mock.Mock
}

func (m *TokenStoreMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *TokenStoreMock) Pop(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) PublishEmail(ctx context.Context, message any) error {
	return m.Called(ctx, message).Error(0)
}

type fixture struct {
	users    *UserRepoMock
	tokens   *TokenStoreMock
	notifier *NotifierMock
	access   *jwt.MakerImpl
	refresh  *jwt.MakerImpl
	svc      *auth.Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    new(UserRepoMock),
		tokens:   new(TokenStoreMock),
		notifier: new(NotifierMock),
		access:   jwt.NewJWTMaker("access-secret", time.Hour),
		refresh:  jwt.NewJWTMaker("refresh-secret", 24*time.Hour),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = auth.NewService(f.users, f.access, f.refresh, f.tokens, f.notifier,
		auth.Options{ResetTokenTTL: time.Hour, ResetURL: "https://app.example.com/reset-password"}, log)
	return f
}

func echoUser(user models.User) *models.User {
	return &user
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		wantRole models.Role
	}{
		{name: "regular email gets student", email: "Learner@Example.com ", wantRole: models.RoleStudent},
		{name: "founder email gets admin", email: "NyakaBawurr@gmail.com", wantRole: models.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
				return u.Email == strings.ToLower(strings.TrimSpace(tt.email)) &&
					u.Role == tt.wantRole &&
					u.ID != "" &&
					password.CompareHash(u.PasswordHash, "password123") == nil
			})).Return(func(_ context.Context, u models.User) *models.User { return echoUser(u) }, nil).Once()

			res, err := f.svc.Register(context.Background(), models.RegisterRequest{
				Email: tt.email, Password: "password123", FirstName: "Rudo", LastName: "Moyo",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, res.User.Role)

			claims, err := f.access.ParseToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, claims.UserID)
			assert.Equal(t, string(tt.wantRole), claims.Role)

			_, err = f.refresh.ParseToken(res.RefreshToken)
			require.NoError(t, err)
			_, err = f.access.ParseToken(res.RefreshToken)
			require.Error(t, err)
			f.users.AssertExpectations(t)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	f := newFixture()
	f.users.On("CreateUser", mock.Anything, mock.Anything).Return(nil, models.ErrAlreadyExists).Once()

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Email: "dup@example.com", Password: "password123", FirstName: "A", LastName: "B",
	})
	require.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)
	user := &models.User{ID: "u-1", Email: "learner@example.com", PasswordHash: hash, Role: models.RoleStudent}

	tests := []struct {
		name     string
		email    string
		password string
		setup    func(r *UserRepoMock)
		wantErr  error
	}{
		{
			name:     "success",
			email:    "LEARNER@example.com",
			password: "password123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "learner@example.com").Return(user, nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "learner@example.com",
			password: "wrong-password",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "learner@example.com").Return(user, nil).Once()
			},
			wantErr: models.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrInvalidCredentials,
		},
		{
			name:     "storage failure",
			email:    "learner@example.com",
			password: "password123",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "learner@example.com").Return(nil, errors.New("db down")).Once()
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f.users)

			res, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", res.User.ID)
			assert.NotEmpty(t, res.Token)
		})
	}
}

func TestService_Refresh(t *testing.T) {
	f := newFixture()
	refresh, err := f.refresh.GenerateToken("u-1", "learner@example.com", "STUDENT")
	require.NoError(t, err)

	f.users.On("GetUserByID", mock.Anything, "u-1").
		Return(&models.User{ID: "u-1", Email: "learner@example.com", Role: models.RoleInstructor}, nil).Once()

	pair, err := f.svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := f.access.ParseToken(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTOR", claims.Role)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		accessToken, err := f.access.GenerateToken("u-1", "learner@example.com", "STUDENT")
		require.NoError(t, err)
		_, err = f.svc.Refresh(context.Background(), accessToken)
		require.ErrorIs(t, err, models.ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		f.users.On("GetUserByID", mock.Anything, "u-1").Return(nil, models.ErrNotFound).Once()
		_, err := f.svc.Refresh(context.Background(), refresh)
		require.ErrorIs(t, err, models.ErrInvalidToken)
	})
}

func TestService_ValidateToken(t *testing.T) {
	f := newFixture()
	token, err := f.access.GenerateToken("u-9", "admin@example.com", "ADMIN")
	require.NoError(t, err)

	caller, err := f.svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-9", caller.UserID)
	assert.True(t, caller.IsAdmin())

	_, err = f.svc.ValidateToken(context.Background(), "garbage")
	require.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestService_ForgotPassword(t *testing.T) {
	t.Run("known user gets a token and an email", func(t *testing.T) {
		f := newFixture()
		user := &models.User{ID: "u-1", Email: "learner@example.com", FirstName: "Rudo"}
		f.users.On("GetUserByEmail", mock.Anything, "learner@example.com").Return(user, nil).Once()
		f.tokens.On("Set", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "password_reset:")
		}), "u-1", time.Hour).Return(nil).Once()
		f.notifier.On("PublishEmail", mock.Anything, mock.MatchedBy(func(msg models.EmailNotification) bool {
			return msg.Kind == models.NotificationPasswordReset &&
				msg.Email == "learner@example.com" &&
				strings.HasPrefix(msg.Data["resetUrl"], "https://app.example.com/reset-password?token=")
		})).Return(nil).Once()

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "learner@example.com"))
		f.tokens.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("unknown user is silent", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, models.ErrNotFound).Once()

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
		f.tokens.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish failure is not returned", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "learner@example.com").
			Return(&models.User{ID: "u-1", Email: "learner@example.com"}, nil).Once()
		f.tokens.On("Set", mock.Anything, mock.Anything, "u-1", time.Hour).Return(nil).Once()
		f.notifier.On("PublishEmail", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "learner@example.com"))
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		f := newFixture()
		f.tokens.On("Pop", mock.Anything, "password_reset:tok", mock.Anything).
			Run(func(args mock.Arguments) {
				*(args.Get(2).(*string)) = "u-1"
			}).Return(true, nil).Once()
		f.users.On("UpdateUserPassword", mock.Anything, "u-1", mock.MatchedBy(func(hash string) bool {
			return password.CompareHash(hash, "new-password") == nil
		})).Return(nil).Once()

		require.NoError(t, f.svc.ResetPassword(context.Background(), "tok", "new-password"))
		f.users.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture()
		f.tokens.On("Pop", mock.Anything, "password_reset:nope", mock.Anything).Return(false, nil).Once()

		err := f.svc.ResetPassword(context.Background(), "nope", "new-password")
		require.ErrorIs(t, err, models.ErrInvalidToken)
	})
}
