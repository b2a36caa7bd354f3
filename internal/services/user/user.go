// Package user реализует чтение и изменение профиля текущего пользователя.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Repository описывает хранилище пользователей.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id, firstName, lastName string) (*models.User, error)
}

// Service управляет профилем пользователя.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создаёт сервис профилей.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Get возвращает пользователя по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	const op = "user.Get"

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateProfile меняет имя и фамилию. Пустые поля остаются прежними.
func (s *Service) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	const op = "user.UpdateProfile"

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" && last == "" {
		return s.Get(ctx, id)
	}

	u, err := s.repo.UpdateUserProfile(ctx, id, first, last)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("profile updated", slog.String("user_id", id))
	return u, nil
}
