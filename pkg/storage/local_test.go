package storage

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

func TestLocalStoreOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(false)

	path := filepath.Join(dir, "in.geojson")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	t.Run("existing file", func(t *testing.T) {
		r, err := store.Open(ctx, "file://"+path)
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Open(ctx, filepath.Join(dir, "missing.geojson"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInputNotFound))
		assert.True(t, stderrors.Is(err, os.ErrNotExist))
	})

	t.Run("directory", func(t *testing.T) {
		_, err := store.Open(ctx, dir)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInputNotFound))
	})

	t.Run("remote uri", func(t *testing.T) {
		_, err := store.Open(ctx, "s3://bucket/key")
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestLocalStoreWriteAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("writes and overwrites", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.geojson")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		err := NewLocalStore(false).WriteAtomic(ctx, path, func(w io.Writer) error {
			_, err := io.WriteString(w, "new content")
			return err
		})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new content", string(data))
		assertOnlyFile(t, dir, "out.geojson")
	})

	t.Run("failed write leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.geojson")

		boom := stderrors.New("encode failed")
		err := NewLocalStore(false).WriteAtomic(ctx, path, func(w io.Writer) error {
			_, _ = io.WriteString(w, strings.Repeat("x", 1<<20))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assertOnlyFile(t, dir, "")
	})

	t.Run("failed write keeps previous output", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.geojson")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		err := NewLocalStore(false).WriteAtomic(ctx, path, func(io.Writer) error {
			return stderrors.New("boom")
		})
		require.Error(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))
	})

	t.Run("missing parent without create dirs", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "out.geojson")

		err := NewLocalStore(false).WriteAtomic(ctx, path, func(io.Writer) error { return nil })
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeWritePermissionDenied))
		assert.Equal(t, "missing_directory", errors.DetailsOf(err)["reason"])
		assert.NoDirExists(t, filepath.Join(dir, "nested"))
	})

	t.Run("missing parent with create dirs", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "deeper", "out.geojson")

		err := NewLocalStore(true).WriteAtomic(ctx, path, func(w io.Writer) error {
			_, err := io.WriteString(w, "{}")
			return err
		})
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("parent is a file", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		err := NewLocalStore(true).WriteAtomic(ctx, filepath.Join(blocker, "out.geojson"), func(io.Writer) error { return nil })
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeWritePermissionDenied))
	})

	t.Run("cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := NewLocalStore(false).WriteAtomic(cctx, filepath.Join(dir, "out.geojson"), func(io.Writer) error { return nil })
		require.Error(t, err)
		assertOnlyFile(t, dir, "")
	})
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if name == "" {
		assert.Empty(t, names)
		return
	}
	assert.Equal(t, []string{name}, names)
}
