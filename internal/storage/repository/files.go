package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const fileColumns = `id, user_id, file_name, original_name, file_url, file_type, file_size, mime_type, context, created_at`

func scanFile(row rowScanner) (*models.UploadedFile, error) {
	f := &models.UploadedFile{}
	if err := row.Scan(&f.ID, &f.UserID, &f.FileName, &f.OriginalName, &f.FileURL, &f.FileType,
		&f.FileSize, &f.MimeType, &f.Context, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile сохраняет метаданные загруженного файла.
func (s *Storage) CreateFile(ctx context.Context, f models.UploadedFile) (*models.UploadedFile, error) {
	const op = "storage.CreateFile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanFile(s.DB.QueryRowContext(ctx,
		`INSERT INTO uploaded_files (id, user_id, file_name, original_name, file_url, file_type, file_size, mime_type, context)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+fileColumns,
		f.ID, f.UserID, f.FileName, f.OriginalName, f.FileURL, f.FileType, f.FileSize, f.MimeType, f.Context))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetFile возвращает метаданные файла владельца.
func (s *Storage) GetFile(ctx context.Context, id, userID string) (*models.UploadedFile, error) {
	const op = "storage.GetFile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	f, err := scanFile(s.DB.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM uploaded_files WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return f, nil
}

// GetFileByName возвращает метаданные файла по имени на диске без проверки владельца.
func (s *Storage) GetFileByName(ctx context.Context, fileName string) (*models.UploadedFile, error) {
	const op = "storage.GetFileByName"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	f, err := scanFile(s.DB.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM uploaded_files WHERE file_name = $1`, fileName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return f, nil
}

// DeleteFile удаляет метаданные файла владельца.
func (s *Storage) DeleteFile(ctx context.Context, id, userID string) error {
	const op = "storage.DeleteFile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = $1 AND user_id = $2`, id, userID)
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
