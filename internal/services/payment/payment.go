// Package payment реализует учёт попыток оплаты и обработку уведомлений шлюза.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/lib/metrics"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Repository описывает хранилище платежей.
type Repository interface {
	GetSubscriptionForUser(ctx context.Context, id, userID string) (*models.Subscription, error)
	CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error)
	ApplyPaymentCallback(ctx context.Context, transactionID string, status models.PaymentStatus, metadata map[string]any) (*models.Payment, models.PaymentStatus, error)
	GetPaymentForUser(ctx context.Context, id, userID string) (*models.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Gateway выдаёт адрес оплаты для способа платежа.
type Gateway interface {
	RedirectURL(method models.PaymentMethod, transactionID string) (string, error)
}

// Notifier ставит письмо в очередь отправки.
type Notifier interface {
	PublishEmail(ctx context.Context, message any) error
}

// Service создаёт платежи и применяет результаты от шлюза.
type Service struct {
	repo     Repository
	gateway  Gateway
	notifier Notifier
	currency string
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт сервис платежей. currency используется, если валюта не указана в запросе.
func NewService(repo Repository, gateway Gateway, notifier Notifier, currency string, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Initiate создаёт платёж в статусе PENDING для подписки пользователя
// и возвращает адрес страницы оплаты.
func (s *Service) Initiate(ctx context.Context, userID string, req models.InitiatePaymentRequest) (*models.PaymentInitiation, error) {
	const op = "payment.Initiate"

	if req.Amount == nil || *req.Amount < 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidAmount)
	}
	amount := *req.Amount

	transactionID := uuid.NewString()
	redirectURL, err := s.gateway.RedirectURL(req.PaymentMethod, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.GetSubscriptionForUser(ctx, req.SubscriptionID, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}

	metadata := map[string]any{}
	maps.Copy(metadata, req.Metadata)
	metadata["initiatedAt"] = now.Format(time.RFC3339)
	metadata["subscriptionId"] = req.SubscriptionID
	metadata["paymentMethod"] = string(req.PaymentMethod)
	metadata["amount"] = amount
	metadata["currency"] = currency
	if req.PhoneNumber != "" {
		metadata["phoneNumber"] = req.PhoneNumber
	}

	payment, err := s.repo.CreatePayment(ctx, models.Payment{
		ID:               uuid.NewString(),
		SubscriptionID:   req.SubscriptionID,
		UserID:           userID,
		Amount:           amount,
		Currency:         currency,
		PaymentMethod:    req.PaymentMethod,
		Status:           models.PaymentPending,
		TransactionID:    transactionID,
		PaymentReference: Reference(now, transactionID),
		Metadata:         metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Payments.WithLabelValues(string(models.PaymentPending)).Inc()
	s.log.Info("payment initiated",
		slog.String("payment_id", payment.ID),
		slog.String("transaction_id", transactionID),
		slog.String("method", string(req.PaymentMethod)),
	)
	return &models.PaymentInitiation{Payment: payment, RedirectURL: redirectURL}, nil
}

// HandleCallback применяет результат платежа. Повторное уведомление с тем же
// статусом приводит к тому же состоянию платежа и подписки; письмо и метрика
// срабатывают только при фактической смене статуса.
func (s *Service) HandleCallback(ctx context.Context, transactionID string, status models.PaymentStatus, metadata map[string]any) (*models.Payment, error) {
	const op = "payment.HandleCallback"

	merged := map[string]any{}
	maps.Copy(merged, metadata)
	merged["callbackAt"] = s.now().UTC().Format(time.RFC3339)

	payment, previous, err := s.repo.ApplyPaymentCallback(ctx, transactionID, status, merged)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if previous == status {
		s.log.Info("repeated payment callback",
			slog.String("payment_id", payment.ID),
			slog.String("status", string(status)),
		)
		return payment, nil
	}

	metrics.Payments.WithLabelValues(string(status)).Inc()
	s.log.Info("payment callback applied",
		slog.String("payment_id", payment.ID),
		slog.String("from", string(previous)),
		slog.String("status", string(status)),
	)

	if status == models.PaymentCompleted {
		s.notifyCompleted(ctx, payment)
	}
	return payment, nil
}

// History возвращает платежи пользователя вместе с подписками, новые первыми.
func (s *Service) History(ctx context.Context, userID string) ([]models.Payment, error) {
	const op = "payment.History"

	payments, err := s.repo.ListPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// Get возвращает платёж пользователя.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.Payment, error) {
	const op = "payment.Get"

	payment, err := s.repo.GetPaymentForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payment, nil
}

func (s *Service) notifyCompleted(ctx context.Context, payment *models.Payment) {
	user, err := s.repo.GetUserByID(ctx, payment.UserID)
	if err != nil {
		s.log.Error("failed to load payer for notification", sl.Err(err), slog.String("payment_id", payment.ID))
		return
	}
	msg := models.EmailNotification{
		Kind:      models.NotificationPaymentCompleted,
		Email:     user.Email,
		FirstName: user.FirstName,
		Data: map[string]string{
			"reference": payment.PaymentReference,
			"amount":    strconv.FormatFloat(payment.Amount, 'f', 2, 64),
			"currency":  payment.Currency,
		},
	}
	if err := s.notifier.PublishEmail(ctx, msg); err != nil {
		s.log.Error("failed to publish payment email", sl.Err(err), slog.String("payment_id", payment.ID))
	}
}

// Reference формирует человекочитаемый номер платежа вида OMNI-<unix ms>-<XXXXXXXX>.
func Reference(at time.Time, transactionID string) string {
	prefix := transactionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("OMNI-%d-%s", at.UnixMilli(), strings.ToUpper(prefix))
}
