package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeInternal, "nothing"))
	})

	t.Run("foreign error keeps cause", func(t *testing.T) {
		err := Wrap(fs.ErrNotExist, ErrorTypeInputNotFound, "open failed")
		require.NotNil(t, err)
		assert.True(t, stderrors.Is(err, fs.ErrNotExist))
		assert.NotEmpty(t, err.Stack)
	})

	t.Run("structured error keeps stack", func(t *testing.T) {
		inner := New(ErrorTypeUnsupportedFormat, "bad json")
		outer := Wrap(inner, ErrorTypeUnsupportedFormat, "load failed")
		assert.Equal(t, inner.Stack, outer.Stack)
		assert.Equal(t, "unsupported_format: load failed: unsupported_format: bad json", outer.Error())
	})
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"structured", New(ErrorTypeConfig, "x"), ErrorTypeConfig},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", New(ErrorTypeWritePermissionDenied, "x")), ErrorTypeWritePermissionDenied},
		{"foreign", stderrors.New("boom"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			assert.Equal(t, tt.want == ErrorTypeConfig, IsType(tt.err, ErrorTypeConfig))
		})
	}
}

func TestDetailsOf(t *testing.T) {
	inner := New(ErrorTypeInputNotFound, "missing").WithDetail("path", "a").WithDetail("scheme", "file")
	outer := Wrap(inner, ErrorTypeInputNotFound, "load").WithDetail("path", "b")

	details := DetailsOf(outer)
	assert.Equal(t, "b", details["path"])
	assert.Equal(t, "file", details["scheme"])
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeConfig, "bad value %d", 7)
	assert.Equal(t, "config: bad value 7", err.Error())
}
