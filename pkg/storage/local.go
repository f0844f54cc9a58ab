package storage

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

const writeBufferSize = 256 * 1024

// LocalStore reads and writes files on the local filesystem.
type LocalStore struct {
	createDirs bool
}

// NewLocalStore creates a local store. When createDirs is set, writes create
// missing parent directories.
func NewLocalStore(createDirs bool) *LocalStore {
	return &LocalStore{createDirs: createDirs}
}

func localPath(uri string) (string, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	if loc.Scheme != SchemeFile {
		return "", errors.Newf(errors.ErrorTypeConfig, "not a local path: %s", uri)
	}
	return loc.Key, nil
}

// Open opens the file at uri for reading.
func (s *LocalStore) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	path, err := localPath(uri)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInputNotFound, "failed to open input").
			WithDetail("path", path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeInputNotFound, "failed to stat input").
			WithDetail("path", path)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, errors.New(errors.ErrorTypeInputNotFound, "input is a directory").
			WithDetail("path", path)
	}

	return f, nil
}

// WriteAtomic writes to a temp file next to the destination and renames it
// into place once fn has succeeded and the data is synced. On failure the
// temp file is removed and the destination is left untouched.
func (s *LocalStore) WriteAtomic(ctx context.Context, uri string, fn func(io.Writer) error) error {
	path, err := localPath(uri)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if s.createDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return writeDenied(err, "failed to create output directory", path)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return writeDenied(err, "failed to create output file", path)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, writeBufferSize)
	if err := fn(buf); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "write cancelled")
	}
	if err := buf.Flush(); err != nil {
		return writeDenied(err, "failed to flush output", path)
	}
	if err := tmp.Sync(); err != nil {
		return writeDenied(err, "failed to sync output", path)
	}
	if err := tmp.Close(); err != nil {
		return writeDenied(err, "failed to close output", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return writeDenied(err, "failed to move output into place", path)
	}
	tmpName = ""

	if d, err := os.Open(dir); err == nil { //nolint:gosec // G304: directory of configured output
		_ = d.Sync()
		_ = d.Close()
	}

	return nil
}

func writeDenied(err error, msg, path string) error {
	e := errors.Wrap(err, errors.ErrorTypeWritePermissionDenied, msg).WithDetail("path", path)
	if stderrors.Is(err, fs.ErrPermission) {
		e.WithDetail("reason", "permission")
	} else if stderrors.Is(err, fs.ErrNotExist) {
		e.WithDetail("reason", "missing_directory")
	}
	return e
}
