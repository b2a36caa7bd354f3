// Package files реализует загрузку, выдачу и удаление пользовательских файлов.
// Содержимое хранится в filestore, метаданные в базе данных.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Repository описывает хранилище метаданных файлов.
type Repository interface {
	CreateFile(ctx context.Context, f models.UploadedFile) (*models.UploadedFile, error)
	GetFile(ctx context.Context, id, userID string) (*models.UploadedFile, error)
	GetFileByName(ctx context.Context, fileName string) (*models.UploadedFile, error)
	DeleteFile(ctx context.Context, id, userID string) error
}

// Blobs описывает хранилище содержимого файлов.
type Blobs interface {
	Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
}

// Upload входные данные загрузки.
type Upload struct {
	OriginalName string
	MimeType     string
	Context      string
	Body         io.Reader
}

// Service управляет файлами пользователей.
type Service struct {
	repo     Repository
	blobs    Blobs
	maxBytes int64
	log      *slog.Logger
}

// NewService создаёт файловый сервис. maxBytes ограничивает размер одного файла.
func NewService(repo Repository, blobs Blobs, maxBytes int64, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		maxBytes: maxBytes,
		log:      log,
	}
}

// URL адрес выдачи файла по имени.
func URL(fileName string) string {
	return "/api/files/serve/" + fileName
}

// Upload сохраняет файл под именем <uuid><расширение> и записывает метаданные.
// При ошибке записи метаданных содержимое удаляется.
func (s *Service) Upload(ctx context.Context, userID string, in Upload) (*models.UploadedFile, error) {
	const op = "files.Upload"

	original := filepath.Base(in.OriginalName)
	ext := strings.ToLower(filepath.Ext(original))
	name := uuid.NewString() + ext

	size, err := s.blobs.Save(ctx, name, in.Body, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mime := in.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	f, err := s.repo.CreateFile(ctx, models.UploadedFile{
		ID:           uuid.NewString(),
		UserID:       userID,
		FileName:     name,
		OriginalName: original,
		FileURL:      URL(name),
		FileType:     ext,
		FileSize:     size,
		MimeType:     mime,
		Context:      in.Context,
	})
	if err != nil {
		if rmErr := s.blobs.Remove(name); rmErr != nil {
			s.log.Error("failed to remove orphaned upload", sl.Err(rmErr), slog.String("file", name))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("file uploaded", slog.String("file_id", f.ID), slog.Int64("size", size))
	return f, nil
}

// Get возвращает метаданные файла владельца.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.UploadedFile, error) {
	const op = "files.Get"

	f, err := s.repo.GetFile(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Open открывает файл по имени для владельца или администратора.
// Чужой файл даёт ErrForbidden, отсутствие на диске ErrNotFound.
func (s *Service) Open(ctx context.Context, fileName string, caller access.Caller) (*models.UploadedFile, *os.File, error) {
	const op = "files.Open"

	meta, err := s.repo.GetFileByName(ctx, fileName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if meta.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	body, err := s.blobs.Open(meta.FileName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return meta, body, nil
}

// Delete удаляет файл владельца с диска и из базы.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	const op = "files.Delete"

	meta, err := s.repo.GetFile(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.blobs.Remove(meta.FileName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteFile(ctx, id, userID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
