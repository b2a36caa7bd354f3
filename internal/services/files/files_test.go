package files_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/services/files"
	"github.com/magabrotheeeer/omniclass/internal/storage/filestore"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateFile(ctx context.Context, f models.UploadedFile) (*models.UploadedFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == true {
		return &f, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *RepoMock) GetFile(ctx context.Context, id, userID string) (*models.UploadedFile, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *RepoMock) GetFileByName(ctx context.Context, fileName string) (*models.UploadedFile, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *RepoMock) DeleteFile(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func setup(t *testing.T, maxBytes int64) (*files.Service, *RepoMock, *filestore.Store) {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	repo := new(RepoMock)
	return files.NewService(repo, store, maxBytes, slog.New(slog.NewTextHandler(io.Discard, nil))), repo, store
}

func TestService_Upload(t *testing.T) {
	svc, repo, store := setup(t, 1024)
	repo.On("CreateFile", mock.Anything, mock.MatchedBy(func(f models.UploadedFile) bool {
		return f.UserID == "u-1" &&
			f.OriginalName == "Homework.PDF" &&
			f.FileType == ".pdf" &&
			strings.HasSuffix(f.FileName, ".pdf") &&
			f.FileURL == files.URL(f.FileName) &&
			f.FileSize == 5 &&
			f.Context == "chat"
	})).Return(true, nil).Once()

	f, err := svc.Upload(context.Background(), "u-1", files.Upload{
		OriginalName: "../../Homework.PDF",
		MimeType:     "application/pdf",
		Context:      "chat",
		Body:         strings.NewReader("hello"),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.BasePath(), f.FileName))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestService_Upload_TooLarge(t *testing.T) {
	svc, repo, _ := setup(t, 4)

	_, err := svc.Upload(context.Background(), "u-1", files.Upload{OriginalName: "a.txt", Body: strings.NewReader("0123456789")})
	require.ErrorIs(t, err, filestore.ErrTooLarge)
	repo.AssertNotCalled(t, "CreateFile", mock.Anything, mock.Anything)
}

func TestService_Upload_RemovesBlobOnRepoError(t *testing.T) {
	svc, repo, store := setup(t, 1024)
	repo.On("CreateFile", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	_, err := svc.Upload(context.Background(), "u-1", files.Upload{OriginalName: "a.txt", Body: strings.NewReader("x")})
	require.Error(t, err)

	entries, err := os.ReadDir(store.BasePath())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Open(t *testing.T) {
	svc, repo, store := setup(t, 1024)
	_, err := store.Save(context.Background(), "f.txt", strings.NewReader("data"), 0)
	require.NoError(t, err)

	meta := &models.UploadedFile{ID: "f-1", UserID: "owner", FileName: "f.txt"}
	repo.On("GetFileByName", mock.Anything, "f.txt").Return(meta, nil)
	repo.On("GetFileByName", mock.Anything, "gone.txt").Return(&models.UploadedFile{UserID: "owner", FileName: "gone.txt"}, nil)

	tests := []struct {
		name    string
		file    string
		caller  access.Caller
		wantErr error
	}{
		{name: "owner", file: "f.txt", caller: access.Caller{UserID: "owner", Role: models.RoleStudent}},
		{name: "admin", file: "f.txt", caller: access.Caller{UserID: "root", Role: models.RoleAdmin}},
		{name: "stranger", file: "f.txt", caller: access.Caller{UserID: "other", Role: models.RoleInstructor}, wantErr: models.ErrForbidden},
		{name: "missing on disk", file: "gone.txt", caller: access.Caller{UserID: "owner"}, wantErr: models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, err := svc.Open(context.Background(), tt.file, tt.caller)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer body.Close()
			data, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, "data", string(data))
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo, store := setup(t, 1024)
	_, err := store.Save(context.Background(), "f.txt", strings.NewReader("data"), 0)
	require.NoError(t, err)

	repo.On("GetFile", mock.Anything, "f-1", "owner").Return(&models.UploadedFile{ID: "f-1", FileName: "f.txt"}, nil).Once()
	repo.On("DeleteFile", mock.Anything, "f-1", "owner").Return(nil).Once()
	repo.On("GetFile", mock.Anything, "f-1", "other").Return(nil, models.ErrNotFound).Once()

	require.ErrorIs(t, svc.Delete(context.Background(), "f-1", "other"), models.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), "f-1", "owner"))

	_, err = os.Stat(filepath.Join(store.BasePath(), "f.txt"))
	assert.True(t, os.IsNotExist(err))
}
