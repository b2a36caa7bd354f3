// Package admin реализует административные операции: пользователей и роли,
// сводные списки подписок и платежей, статистику платформы.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Repository описывает хранилище для административных запросов.
type Repository interface {
	ListUsers(ctx context.Context, page models.Page, role models.Role) ([]models.User, int, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	ListAllSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.Subscription, error)
	ListAllPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	GetStats(ctx context.Context, now time.Time) (*models.Stats, error)
}

// Service выполняет административные операции.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewService создаёт административный сервис.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NormalizePage подставляет значения по умолчанию и ограничивает размер страницы.
func NormalizePage(p models.Page) models.Page {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Users возвращает страницу пользователей, при необходимости с фильтром по роли.
func (s *Service) Users(ctx context.Context, page models.Page, role models.Role) (*models.UserList, error) {
	const op = "admin.Users"

	page = NormalizePage(page)
	users, total, err := s.repo.ListUsers(ctx, page, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &models.UserList{
		Users: users,
		Pagination: models.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: (total + page.Limit - 1) / page.Limit,
		},
	}, nil
}

// UpdateRole назначает пользователю роль.
func (s *Service) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	const op = "admin.UpdateRole"

	u, err := s.repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user role updated", slog.String("user_id", id), slog.String("role", string(role)))
	return u, nil
}

// Subscriptions возвращает подписки всех пользователей.
func (s *Service) Subscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.Subscription, error) {
	const op = "admin.Subscriptions"

	subs, err := s.repo.ListAllSubscriptions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Payments возвращает платежи всех пользователей.
func (s *Service) Payments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	const op = "admin.Payments"

	payments, err := s.repo.ListAllPayments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// Stats возвращает сводную статистику на текущий момент.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "admin.Stats"

	stats, err := s.repo.GetStats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
