package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const subscriptionColumns = `id, user_id, type, status, start_date, end_date, billing_period, amount, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	sub := &models.Subscription{}
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.BillingPeriod, &sub.Amount, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateSubscription отменяет все активные подписки пользователя того же типа
// и вставляет новую. Обе операции выполняются в одной транзакции под блокировкой
// строки пользователя, поэтому параллельные вызовы для одного пользователя
// выполняются последовательно и после каждого остаётся ровно одна ACTIVE запись.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var created *models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var userID string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, sub.UserID).Scan(&userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = $3, updated_at = NOW()
			 WHERE user_id = $1 AND type = $2 AND status = $4`,
			sub.UserID, sub.Type, models.SubscriptionCancelled, models.SubscriptionActive); err != nil {
			return err
		}

		query := `INSERT INTO subscriptions (id, user_id, type, status, start_date, end_date, billing_period, amount)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				  RETURNING ` + subscriptionColumns
		var err error
		created, err = scanSubscription(tx.QueryRowContext(ctx, query,
			sub.ID, sub.UserID, sub.Type, sub.Status, sub.StartDate, sub.EndDate, sub.BillingPeriod, sub.Amount))
		return err
	})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetActiveSubscription возвращает последнюю созданную подписку со статусом ACTIVE,
// срок которой не истёк к моменту now.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID string, subType models.SubscriptionType, now time.Time) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1 AND type = $2 AND status = $3 AND end_date >= $4
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID, subType, models.SubscriptionActive, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая подписка типа subType.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID string, subType models.SubscriptionType, now time.Time) (bool, error) {
	const op = "storage.HasActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND type = $2 AND status = $3 AND end_date >= $4
		)`, userID, subType, models.SubscriptionActive, now).Scan(&exists)
	if err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// CancelSubscription переводит подписку в CANCELLED, только если она принадлежит userID.
// Возвращает количество изменённых строк; для чужой подписки это 0.
func (s *Storage) CancelSubscription(ctx context.Context, id, userID string) (int, error) {
	const op = "storage.CancelSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		id, userID, models.SubscriptionCancelled)
	if isInvalidID(err) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(n), nil
}

// GetSubscriptionForUser возвращает подписку, принадлежащую userID.
func (s *Storage) GetSubscriptionForUser(ctx context.Context, id, userID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionForUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND user_id = $2`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// ListSubscriptions возвращает историю подписок пользователя, новые первыми.
func (s *Storage) ListSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result, err := collectSubscriptions(rows)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ListAllSubscriptions возвращает подписки всех пользователей с фильтрами по статусу и типу.
func (s *Storage) ListAllSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.Subscription, error) {
	const op = "storage.ListAllSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE ($1::text IS NULL OR status = $1)
			    AND ($2::text IS NULL OR type = $2)
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, nullIfEmpty(string(filter.Status)), nullIfEmpty(string(filter.Type)))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result, err := collectSubscriptions(rows)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

func collectSubscriptions(rows *sql.Rows) ([]models.Subscription, error) {
	result := []models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}
