// Package auth содержит логику регистрации, входа, обновления токенов и сброса пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/lib/founders"
	"github.com/magabrotheeeer/omniclass/internal/lib/jwt"
	"github.com/magabrotheeeer/omniclass/internal/lib/password"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

const resetKeyPrefix = "password_reset:"

// UserRepository описывает доступ к учётным записям.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// TokenStore хранит одноразовые токены сброса пароля.
type TokenStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Pop(ctx context.Context, key string, result any) (bool, error)
}

// Notifier ставит письмо в очередь отправки.
type Notifier interface {
	PublishEmail(ctx context.Context, message any) error
}

// Options параметры сброса пароля.
type Options struct {
	ResetTokenTTL time.Duration
	ResetURL      string
}

// Service отвечает за учётные данные и выпуск токенов.
type Service struct {
	users    UserRepository
	access   jwt.Maker
	refresh  jwt.Maker
	tokens   TokenStore
	notifier Notifier
	opts     Options
	log      *slog.Logger
}

// NewService создаёт сервис аутентификации.
func NewService(users UserRepository, accessMaker, refreshMaker jwt.Maker, tokens TokenStore,
	notifier Notifier, opts Options, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		access:   accessMaker,
		refresh:  refreshMaker,
		tokens:   tokens,
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

// Register создаёт пользователя. Роль ADMIN получают адреса из списка основателей,
// остальные STUDENT.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	email := normalizeEmail(req.Email)
	user, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         founders.RoleFor(email),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	return s.issue(op, user)
}

// Login проверяет пароль. Неизвестный email и неверный пароль неразличимы.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.AuthResult, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	return s.issue(op, user)
}

// Refresh проверяет токен обновления и выпускает новую пару для актуального состояния пользователя.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.refresh.ParseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := s.issue(op, user)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{Token: result.Token, RefreshToken: result.RefreshToken}, nil
}

// ValidateToken разбирает токен доступа и возвращает вызывающего.
func (s *Service) ValidateToken(_ context.Context, token string) (access.Caller, error) {
	const op = "auth.ValidateToken"

	claims, err := s.access.ParseToken(token)
	if err != nil {
		return access.Caller{}, fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
	}
	return access.Caller{UserID: claims.UserID, Email: claims.Email, Role: models.Role(claims.Role)}, nil
}

// ForgotPassword создаёт токен сброса и ставит письмо в очередь.
// Для неизвестного адреса ничего не происходит и ошибка не возвращается.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	if err := s.tokens.Set(ctx, resetKeyPrefix+token, user.ID, s.opts.ResetTokenTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.EmailNotification{
		Kind:      models.NotificationPasswordReset,
		Email:     user.Email,
		FirstName: user.FirstName,
		Data:      map[string]string{"resetUrl": s.resetLink(token)},
	}
	if err := s.notifier.PublishEmail(ctx, msg); err != nil {
		s.log.Error("failed to publish password reset email", sl.Err(err), slog.String("user_id", user.ID))
	}
	return nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	var userID string
	found, err := s.tokens.Pop(ctx, resetKeyPrefix+token, &userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found || userID == "" {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidToken)
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password reset", slog.String("user_id", userID))
	return nil
}

func (s *Service) issue(op string, user *models.User) (*models.AuthResult, error) {
	token, err := s.access.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.refresh.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{User: user, Token: token, RefreshToken: refresh}, nil
}

func (s *Service) resetLink(token string) string {
	u, err := url.Parse(s.opts.ResetURL)
	if err != nil {
		return s.opts.ResetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
