package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_email_verified, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsEmailVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя. Повторный email даёт models.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO users (id, email, password_hash, first_name, last_name, role)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + userColumns
	created, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpdateUserProfile меняет имя и фамилию. Пустые значения не перезаписывают текущие.
func (s *Storage) UpdateUserProfile(ctx context.Context, id, firstName, lastName string) (*models.User, error) {
	const op = "storage.UpdateUserProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET first_name = COALESCE($2, first_name),
			      last_name = COALESCE($3, last_name),
			      updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id, nullIfEmpty(firstName), nullIfEmpty(lastName)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpdateUserPassword заменяет хэш пароля.
func (s *Storage) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdateUserPassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// UpdateUserRole меняет роль пользователя.
func (s *Storage) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	const op = "storage.UpdateUserRole"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// ListUsers возвращает страницу пользователей, новые первыми, и общее их число.
func (s *Storage) ListUsers(ctx context.Context, page models.Page, role models.Role) ([]models.User, int, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1::text IS NULL OR role = $1)`, nullIfEmpty(string(role)),
	).Scan(&total); err != nil {
		return nil, 0, wrapErr(op, err)
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE ($1::text IS NULL OR role = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, nullIfEmpty(string(role)), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	defer rows.Close()

	users := make([]models.User, 0, page.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrapErr(op, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return users, total, nil
}
