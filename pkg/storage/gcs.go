package storage

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/errors"
)

// GCSStore reads and writes objects in Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	logger *zap.Logger
}

// NewGCSStore creates a store using the configured credentials file, or
// application default credentials when none is set.
func NewGCSStore(ctx context.Context, cfg config.GCSConfig, logger *zap.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSStore{
		client: client,
		logger: logger.With(zap.String("component", "gcs_store")),
	}, nil
}

func (s *GCSStore) object(uri string) (*storage.ObjectHandle, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != SchemeGCS {
		return nil, errors.Newf(errors.ErrorTypeConfig, "not a gs URI: %s", uri)
	}
	return s.client.Bucket(loc.Bucket).Object(loc.Key), nil
}

// Open returns a reader for the object at uri.
func (s *GCSStore) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	obj, err := s.object(uri)
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, gcsError(err, errors.ErrorTypeInputNotFound, "failed to read object", uri)
	}
	return r, nil
}

// WriteAtomic streams fn's output to the object. GCS finalizes the object
// on Close; when fn fails the upload context is cancelled so no object is
// created.
func (s *GCSStore) WriteAtomic(ctx context.Context, uri string, fn func(io.Writer) error) error {
	obj, err := s.object(uri)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(ctx)
	if err := fn(w); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return gcsError(err, errors.ErrorTypeWritePermissionDenied, "failed to write object", uri)
	}

	s.logger.Debug("object written", zap.String("uri", uri))
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// gcsError wraps err with the given kind and records the HTTP status.
func gcsError(err error, errType errors.ErrorType, msg, uri string) error {
	e := errors.Wrap(err, errType, msg).WithDetail("uri", uri)

	var apiErr *googleapi.Error
	switch {
	case stderrors.Is(err, storage.ErrObjectNotExist), stderrors.Is(err, storage.ErrBucketNotExist):
		e.WithDetail("status", http.StatusNotFound)
	case stderrors.As(err, &apiErr):
		e.WithDetail("status", apiErr.Code)
	}
	return e
}
