// Package storage resolves dataset locations to the object store that holds
// them. Plain paths and file:// URIs use the local filesystem, s3:// URIs use
// Amazon S3 (or an S3-compatible endpoint) and gs:// URIs use Google Cloud
// Storage.
//
// Every store commits writes atomically: either the complete output becomes
// visible or nothing does. Store errors are reported with the pkg/errors
// kinds ErrorTypeInputNotFound (reads) and ErrorTypeWritePermissionDenied
// (writes).
package storage

import (
	"context"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/errors"
)

// Scheme identifies a storage backend.
type Scheme string

const (
	// SchemeFile is the local filesystem
	SchemeFile Scheme = "file"
	// SchemeS3 is Amazon S3
	SchemeS3 Scheme = "s3"
	// SchemeGCS is Google Cloud Storage
	SchemeGCS Scheme = "gs"
)

// Store reads and writes whole objects.
type Store interface {
	// Open returns a reader for the object at uri.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	// WriteAtomic streams the output produced by fn to uri. The object is
	// only committed when fn returns nil.
	WriteAtomic(ctx context.Context, uri string, fn func(io.Writer) error) error
}

// Location is a parsed dataset URI.
type Location struct {
	Scheme Scheme
	// Bucket is empty for local paths
	Bucket string
	// Key is the object key, or the filesystem path for local locations
	Key string
}

// ParseURI splits uri into scheme, bucket and key.
func ParseURI(uri string) (*Location, error) {
	sep := strings.Index(uri, "://")
	if sep < 0 {
		return &Location{Scheme: SchemeFile, Key: uri}, nil
	}

	scheme, rest := Scheme(strings.ToLower(uri[:sep])), uri[sep+3:]
	switch scheme {
	case SchemeFile:
		return &Location{Scheme: SchemeFile, Key: rest}, nil
	case SchemeS3, SchemeGCS:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return nil, errors.Newf(errors.ErrorTypeConfig, "invalid %s URI, expected %s://bucket/key: %s", scheme, scheme, uri)
		}
		return &Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported storage scheme %q in %s", scheme, uri)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger handed to created stores.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithCreateDirs controls whether local writes create missing parent directories.
func WithCreateDirs(create bool) Option {
	return func(r *Resolver) {
		r.createDirs = create
	}
}

// WithStore registers a store for a scheme, replacing the default backend.
func WithStore(scheme Scheme, store Store) Option {
	return func(r *Resolver) {
		r.stores[scheme] = store
	}
}

// Resolver hands out one store per scheme, creating remote clients on first use.
type Resolver struct {
	cfg        config.StorageConfig
	createDirs bool
	logger     *zap.Logger

	mu      sync.Mutex
	stores  map[Scheme]Store
	closers []io.Closer
}

// NewResolver creates a resolver for the given storage configuration.
func NewResolver(cfg config.StorageConfig, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		logger: zap.NewNop(),
		stores: make(map[Scheme]Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForPath returns the store responsible for uri.
func (r *Resolver) ForPath(ctx context.Context, uri string) (Store, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[loc.Scheme]; ok {
		return store, nil
	}

	var store Store
	switch loc.Scheme {
	case SchemeFile:
		store = NewLocalStore(r.createDirs)
	case SchemeS3:
		s3Store, err := NewS3Store(ctx, r.cfg.S3, r.logger)
		if err != nil {
			return nil, err
		}
		store = s3Store
	case SchemeGCS:
		gcsStore, err := NewGCSStore(ctx, r.cfg.GCS, r.logger)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, gcsStore)
		store = gcsStore
	}

	r.logger.Debug("storage backend ready", zap.String("scheme", string(loc.Scheme)))
	r.stores[loc.Scheme] = store
	return store, nil
}

// Close releases remote clients.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
