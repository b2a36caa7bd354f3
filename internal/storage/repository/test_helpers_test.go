package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/omniclass/internal/migrations"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// TestDataFactory создаёт тестовые данные напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя с заданной ролью и возвращает его id.
func (f *TestDataFactory) CreateUser(t *testing.T, email string, role models.Role) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, "hashedpassword", "Test", "User", role)
	require.NoError(t, err)
	return id
}

// CreateSubscription вставляет подписку в обход транзакционной логики хранилища.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID string, subType models.SubscriptionType,
	status models.SubscriptionStatus, endDate time.Time) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO subscriptions
		(id, user_id, type, status, start_date, end_date, billing_period, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, userID, subType, status, endDate.AddDate(0, -1, 0), endDate, models.BillingMonthly, 10.0)
	require.NoError(t, err)
	return id
}

// FirstSubject возвращает id любого предмета из начального наполнения.
func (f *TestDataFactory) FirstSubject(t *testing.T) string {
	var id string
	err := f.storage.DB.QueryRow(`SELECT id FROM subjects ORDER BY name LIMIT 1`).Scan(&id)
	require.NoError(t, err)
	return id
}

// SubscriptionStatus читает текущий статус подписки.
func (f *TestDataFactory) SubscriptionStatus(t *testing.T, id string) models.SubscriptionStatus {
	var status models.SubscriptionStatus
	err := f.storage.DB.QueryRow(`SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&status)
	require.NoError(t, err)
	return status
}

// CountActive считает ACTIVE подписки пользователя заданного типа.
func (f *TestDataFactory) CountActive(t *testing.T, userID string, subType models.SubscriptionType) int {
	var n int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND type = $2 AND status = 'ACTIVE'`,
		userID, subType).Scan(&n)
	require.NoError(t, err)
	return n
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}
