package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/errors"
)

const defaultUploadPartSize = 5 * 1024 * 1024

// S3Client is the subset of the S3 API the store uses.
type S3Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads and writes objects in Amazon S3.
type S3Store struct {
	client   S3Client
	uploader *manager.Uploader
	logger   *zap.Logger
}

// NewS3Store creates a store from the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3StoreWithClient(client, cfg.PartSizeMB*1024*1024, logger), nil
}

// NewS3StoreWithClient creates a store around an existing client.
func NewS3StoreWithClient(client S3Client, partSize int64, logger *zap.Logger) *S3Store {
	if partSize < manager.MinUploadPartSize {
		partSize = defaultUploadPartSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
		}),
		logger: logger.With(zap.String("component", "s3_store")),
	}
}

func s3Location(uri string) (*Location, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != SchemeS3 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "not an s3 URI: %s", uri)
	}
	return loc, nil
}

// Open starts a GetObject request for uri.
func (s *S3Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := s3Location(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, s3Error(err, errors.ErrorTypeInputNotFound, "failed to get object", uri)
	}
	return out.Body, nil
}

// WriteAtomic buffers the output and uploads it once fn succeeds. S3 only
// exposes an object after the (single or multipart) upload completes.
func (s *S3Store) WriteAtomic(ctx context.Context, uri string, fn func(io.Writer) error) error {
	loc, err := s3Location(uri)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}

	s.logger.Debug("uploading object",
		zap.String("bucket", loc.Bucket),
		zap.String("key", loc.Key),
		zap.Int("bytes", buf.Len()))

	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Body:   bytes.NewReader(buf.Bytes()),
	}); err != nil {
		return s3Error(err, errors.ErrorTypeWritePermissionDenied, "failed to upload object", uri)
	}
	return nil
}

// s3Error wraps err with the given kind and records the S3 error code.
func s3Error(err error, errType errors.ErrorType, msg, uri string) error {
	e := errors.Wrap(err, errType, msg).WithDetail("uri", uri)
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		e.WithDetail("code", apiErr.ErrorCode())
	}
	return e
}
