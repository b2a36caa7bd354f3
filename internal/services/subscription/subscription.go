// Package subscription реализует жизненный цикл подписок: оформление,
// проверку активности, отмену и историю.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/lib/billing"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Repository описывает хранилище подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID string, subType models.SubscriptionType, now time.Time) (*models.Subscription, error)
	HasActiveSubscription(ctx context.Context, userID string, subType models.SubscriptionType, now time.Time) (bool, error)
	CancelSubscription(ctx context.Context, id, userID string) (int, error)
	ListSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error)
}

// Service управляет подписками пользователей.
type Service struct {
	repo    Repository
	pricing config.Pricing
	log     *slog.Logger
	now     func() time.Time
}

// NewService создаёт сервис подписок.
func NewService(repo Repository, pricing config.Pricing, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		pricing: pricing,
		log:     log,
		now:     time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Overview возвращает действующие подписки обоих типов.
// Администратору подписка не нужна, поэтому запросы в хранилище не выполняются.
func (s *Service) Overview(ctx context.Context, caller access.Caller) (*models.SubscriptionOverview, error) {
	const op = "subscription.Overview"

	if caller.IsAdmin() {
		return &models.SubscriptionOverview{HasActiveSubscription: true, IsAdmin: true}, nil
	}

	student, err := s.Active(ctx, caller.UserID, models.SubscriptionStudent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	instructor, err := s.Active(ctx, caller.UserID, models.SubscriptionInstructor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.SubscriptionOverview{
		Student:                   student,
		Instructor:                instructor,
		HasStudentSubscription:    student != nil,
		HasInstructorSubscription: instructor != nil,
	}, nil
}

// Create оформляет подписку: все прежние активные подписки того же типа
// отменяются, новая создаётся в статусе ACTIVE. Пустой период заменяется
// периодом по умолчанию из конфигурации.
func (s *Service) Create(ctx context.Context, userID string, subType models.SubscriptionType, period models.BillingPeriod) (*models.Subscription, error) {
	const op = "subscription.Create"

	if period == "" {
		period = s.pricing.DefaultBillingPeriod
	}
	start := s.now().UTC()
	sub, err := s.repo.CreateSubscription(ctx, models.Subscription{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          subType,
		Status:        models.SubscriptionActive,
		StartDate:     start,
		EndDate:       billing.EndDate(start, period),
		BillingPeriod: period,
		Amount:        s.pricing.PriceFor(subType),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription created",
		slog.String("user_id", userID),
		slog.String("type", string(subType)),
		slog.String("subscription_id", sub.ID),
	)
	return sub, nil
}

// Active возвращает действующую подписку или nil, если её нет.
func (s *Service) Active(ctx context.Context, userID string, subType models.SubscriptionType) (*models.Subscription, error) {
	const op = "subscription.Active"

	sub, err := s.repo.GetActiveSubscription(ctx, userID, subType, s.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// HasActive сообщает, есть ли у пользователя действующая подписка типа subType.
func (s *Service) HasActive(ctx context.Context, userID string, subType models.SubscriptionType) (bool, error) {
	const op = "subscription.HasActive"

	ok, err := s.repo.HasActiveSubscription(ctx, userID, subType, s.now())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Cancel отменяет подписку владельца. Для чужой или несуществующей подписки
// ничего не меняется и возвращается 0.
func (s *Service) Cancel(ctx context.Context, id, userID string) (int, error) {
	const op = "subscription.Cancel"

	n, err := s.repo.CancelSubscription(ctx, id, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		s.log.Warn("cancel matched no subscription", slog.String("subscription_id", id), slog.String("user_id", userID))
	}
	return n, nil
}

// History возвращает все подписки пользователя, новые первыми.
func (s *Service) History(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "subscription.History"

	subs, err := s.repo.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}
