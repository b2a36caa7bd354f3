// Package filestore хранит загруженные файлы в локальной файловой системе.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// ErrInvalidName имя файла пустое или выходит за пределы корня хранилища.
var ErrInvalidName = errors.New("filestore: invalid file name")

// ErrTooLarge содержимое превышает допустимый размер.
var ErrTooLarge = errors.New("filestore: file too large")

// Store каталог на диске, в который складываются загрузки.
type Store struct {
	basePath string
}

// New создаёт хранилище с корнем basePath, создавая каталог при необходимости.
func New(basePath string) (*Store, error) {
	const op = "filestore.New"

	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("%s: base path is required", op)
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{basePath: basePath}, nil
}

// BasePath возвращает корневой каталог.
func (s *Store) BasePath() string {
	return s.basePath
}

// Save записывает содержимое r в файл name и возвращает число записанных байт.
// Если записано больше limit байт, файл удаляется и возвращается ошибка.
func (s *Store) Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error) {
	const op = "filestore.Save"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	fullPath, err := s.path(name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: limit %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Open открывает файл для чтения. Отсутствующий файл даёт models.ErrNotFound.
func (s *Store) Open(name string) (*os.File, error) {
	const op = "filestore.Open"

	fullPath, err := s.path(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Remove удаляет файл. Отсутствие файла ошибкой не считается.
func (s *Store) Remove(name string) error {
	const op = "filestore.Remove"

	fullPath, err := s.path(name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// path разрешает имя только внутри корня; вложенные каталоги не допускаются.
func (s *Store) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.basePath, name), nil
}
