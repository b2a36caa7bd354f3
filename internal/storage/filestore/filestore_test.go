package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return store
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}

func TestStore_SaveOpenRemove(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	n, err := store.Save(ctx, "notes.pdf", strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	f, err := store.Open("notes.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Remove("notes.pdf"))
	require.NoError(t, store.Remove("notes.pdf"))

	_, err = store.Open("notes.pdf")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_Save_TooLarge(t *testing.T) {
	store := newStore(t)

	_, err := store.Save(context.Background(), "big.bin", strings.NewReader("0123456789"), 4)
	require.ErrorIs(t, err, ErrTooLarge)

	_, statErr := os.Stat(filepath.Join(store.BasePath(), "big.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_Save_Existing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "a.txt", strings.NewReader("1"), 0)
	require.NoError(t, err)
	_, err = store.Save(ctx, "a.txt", strings.NewReader("2"), 0)
	require.Error(t, err)
}

func TestStore_RejectsTraversal(t *testing.T) {
	store := newStore(t)

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.txt", `a\b.txt`, "."} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Open(name)
			require.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestStore_Save_CancelledContext(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "x.txt", strings.NewReader("x"), 0)
	require.ErrorIs(t, err, context.Canceled)
}
