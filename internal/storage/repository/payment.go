package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const paymentColumns = `p.id, p.subscription_id, p.user_id, p.amount, p.currency, p.payment_method, p.status,
	p.transaction_id, p.payment_reference, p.metadata, p.created_at, p.updated_at`

func scanPayment(row rowScanner, extra ...any) (*models.Payment, error) {
	p := &models.Payment{}
	var metadata []byte
	dest := append([]any{&p.ID, &p.SubscriptionID, &p.UserID, &p.Amount, &p.Currency, &p.PaymentMethod,
		&p.Status, &p.TransactionID, &p.PaymentReference, &metadata, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m, err := unmarshalMap(metadata)
	if err != nil {
		return nil, err
	}
	p.Metadata = m
	return p, nil
}

// CreatePayment сохраняет новую попытку оплаты.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	metadata, err := marshalJSON(payment.Metadata)
	if err != nil {
		return nil, wrapErr(op, err)
	}

	query := `INSERT INTO payments AS p (id, subscription_id, user_id, amount, currency, payment_method, status,
			      transaction_id, payment_reference, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		payment.ID, payment.SubscriptionID, payment.UserID, payment.Amount, payment.Currency,
		payment.PaymentMethod, payment.Status, payment.TransactionID, payment.PaymentReference, metadata))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ApplyPaymentCallback фиксирует результат платежа по transactionID:
// меняет статус, дополняет metadata и при статусе COMPLETED переводит
// связанную подписку в ACTIVE. Всё выполняется в одной транзакции.
// Вторым значением возвращается статус платежа до обновления.
func (s *Storage) ApplyPaymentCallback(ctx context.Context, transactionID string, status models.PaymentStatus, metadata map[string]any) (*models.Payment, models.PaymentStatus, error) {
	const op = "storage.ApplyPaymentCallback"
	if err := checkCtx(ctx, op); err != nil {
		return nil, "", err
	}

	var (
		updated  *models.Payment
		previous models.PaymentStatus
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments p WHERE p.transaction_id = $1 FOR UPDATE`, transactionID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return err
		}
		previous = current.Status

		merged := make(map[string]any, len(current.Metadata)+len(metadata))
		maps.Copy(merged, current.Metadata)
		maps.Copy(merged, metadata)
		raw, err := marshalJSON(merged)
		if err != nil {
			return err
		}

		updated, err = scanPayment(tx.QueryRowContext(ctx,
			`UPDATE payments AS p SET status = $2, metadata = $3, updated_at = NOW()
			 WHERE p.id = $1
			 RETURNING `+paymentColumns, current.ID, status, raw))
		if err != nil {
			return err
		}

		if status == models.PaymentCompleted {
			if _, err := tx.ExecContext(ctx,
				`UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1 AND status <> $2`,
				current.SubscriptionID, models.SubscriptionActive); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", wrapErr(op, err)
	}
	return updated, previous, nil
}

// GetPaymentForUser возвращает платёж пользователя вместе с подпиской.
func (s *Storage) GetPaymentForUser(ctx context.Context, id, userID string) (*models.Payment, error) {
	const op = "storage.GetPaymentForUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `, ` + prefixed("s", subscriptionColumns) + `
			  FROM payments p
			  JOIN subscriptions s ON s.id = p.subscription_id
			  WHERE p.id = $1 AND p.user_id = $2`
	p, err := scanPaymentWithSubscription(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `, ` + prefixed("s", subscriptionColumns) + `
			  FROM payments p
			  JOIN subscriptions s ON s.id = p.subscription_id
			  WHERE p.user_id = $1
			  ORDER BY p.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.Payment{}
	for rows.Next() {
		p, err := scanPaymentWithSubscription(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ListAllPayments возвращает платежи всех пользователей с фильтрами по статусу и способу.
func (s *Storage) ListAllPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	const op = "storage.ListAllPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments p
			  WHERE ($1::text IS NULL OR p.status = $1)
			    AND ($2::text IS NULL OR p.payment_method = $2)
			  ORDER BY p.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, nullIfEmpty(string(filter.Status)), nullIfEmpty(string(filter.Method)))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

func scanPaymentWithSubscription(row rowScanner) (*models.Payment, error) {
	sub := &models.Subscription{}
	p, err := scanPayment(row, &sub.ID, &sub.UserID, &sub.Type, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.BillingPeriod, &sub.Amount, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Subscription = sub
	return p, nil
}
