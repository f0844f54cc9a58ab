package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *mockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestS3StoreOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		client := new(mockS3Client)
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "datasets" && *in.Key == "train/train.geojson"
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("payload"))}, nil).Once()

		r, err := NewS3StoreWithClient(client, 0, nil).Open(ctx, "s3://datasets/train/train.geojson")
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
		client.AssertExpectations(t)
	})

	t.Run("no such key", func(t *testing.T) {
		client := new(mockS3Client)
		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &types.NoSuchKey{Message: strPtr("missing")}).Once()

		_, err := NewS3StoreWithClient(client, 0, nil).Open(ctx, "s3://datasets/missing.geojson")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInputNotFound))
		assert.Equal(t, "NoSuchKey", errors.DetailsOf(err)["code"])
	})

	t.Run("access denied", func(t *testing.T) {
		client := new(mockS3Client)
		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}).Once()

		_, err := NewS3StoreWithClient(client, 0, nil).Open(ctx, "s3://private/train.geojson")
		assert.True(t, errors.IsType(err, errors.ErrorTypeInputNotFound))
		assert.Equal(t, "AccessDenied", errors.DetailsOf(err)["code"])
	})
}

func TestS3StoreWriteAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads complete body", func(t *testing.T) {
		client := new(mockS3Client)
		var uploaded string
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Bucket == "out" && *in.Key == "samples/1000.geojson"
		})).Run(func(args mock.Arguments) {
			body, _ := io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
			uploaded = string(body)
		}).Return(&s3.PutObjectOutput{}, nil).Once()

		err := NewS3StoreWithClient(client, 0, nil).WriteAtomic(ctx, "s3://out/samples/1000.geojson", func(w io.Writer) error {
			_, err := io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, `{"type":"FeatureCollection","features":[]}`, uploaded)
		client.AssertExpectations(t)
	})

	t.Run("encoder failure uploads nothing", func(t *testing.T) {
		client := new(mockS3Client)
		err := NewS3StoreWithClient(client, 0, nil).WriteAtomic(ctx, "s3://out/x.geojson", func(io.Writer) error {
			return errors.New(errors.ErrorTypeInternal, "encode failed")
		})
		require.Error(t, err)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})

	t.Run("access denied", func(t *testing.T) {
		client := new(mockS3Client)
		client.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}).Once()

		err := NewS3StoreWithClient(client, 0, nil).WriteAtomic(ctx, "s3://locked/x.geojson", func(w io.Writer) error {
			_, err := io.WriteString(w, "{}")
			return err
		})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeWritePermissionDenied))
		assert.Equal(t, "AccessDenied", errors.DetailsOf(err)["code"])
	})
}

func strPtr(s string) *string { return &s }
