package base

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/compression"
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
)

const readBufferSize = 256 * 1024

// Input is an opened, decompressed source stream.
type Input struct {
	io.Reader
	// Compression is the codec the stream was decoded with
	Compression compression.Algorithm

	raw     *countingReader
	decoder io.Closer
	body    io.Closer
}

// BytesRead returns the number of raw (compressed) bytes consumed.
func (in *Input) BytesRead() int64 {
	return in.raw.n
}

// ReadErr returns the first error from the underlying store, if any. It
// lets callers tell an unreadable input apart from undecodable content.
func (in *Input) ReadErr() error {
	return in.raw.err
}

// Close releases the decompressor and the underlying object.
func (in *Input) Close() error {
	derr := in.decoder.Close()
	berr := in.body.Close()
	if berr != nil {
		return berr
	}
	return derr
}

// OpenInput opens cfg.Path and wraps it with the right decompressor: the
// configured codec, else the path suffix, else the stream's magic bytes.
func (bc *BaseConnector) OpenInput(ctx context.Context, cfg *core.SourceConfig) (*Input, error) {
	if cfg.Store == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "source has no storage backend")
	}

	alg, explicit, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if !explicit {
		alg, _ = compression.DetectFromPath(cfg.Path)
	}

	body, err := cfg.Store.Open(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}

	raw := &countingReader{r: body}
	br := bufio.NewReaderSize(raw, readBufferSize)
	if !explicit && alg == compression.None {
		header, _ := br.Peek(compression.MagicLen)
		alg = compression.Sniff(header)
	}

	dec, err := compression.NewReader(alg, br)
	if err != nil {
		_ = body.Close()
		if raw.err != nil {
			return nil, errors.Wrap(raw.err, errors.ErrorTypeInputNotFound, "failed to read input").
				WithDetail("path", cfg.Path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedFormat, "failed to open compressed input").
			WithDetail("path", cfg.Path).
			WithDetail("compression", string(alg))
	}

	if alg != compression.None {
		bc.logger.Debug("decompressing input", zap.String("compression", string(alg)))
	}
	bc.metrics.Record("compression", string(alg))

	return &Input{
		Reader:      dec,
		Compression: alg,
		raw:         raw,
		decoder:     dec,
		body:        body,
	}, nil
}

// DecodeError classifies a failure while decoding in: store read failures
// are ErrorTypeInputNotFound, everything else ErrorTypeUnsupportedFormat.
func DecodeError(in *Input, err error, msg, path string) *errors.Error {
	if readErr := in.ReadErr(); readErr != nil {
		return errors.Wrap(readErr, errors.ErrorTypeInputNotFound, "failed to read input").
			WithDetail("path", path)
	}
	return errors.Wrap(err, errors.ErrorTypeUnsupportedFormat, msg).WithDetail("path", path)
}

// WriteOutput commits the output produced by fn to cfg.Path through the
// configured store, compressing it with the configured or suffix-implied
// codec. It returns the number of bytes written after compression.
func (bc *BaseConnector) WriteOutput(ctx context.Context, cfg *core.DestinationConfig, fn func(io.Writer) error) (int64, error) {
	if cfg.Store == nil {
		return 0, errors.New(errors.ErrorTypeConfig, "destination has no storage backend")
	}

	alg, explicit, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return 0, err
	}
	if !explicit {
		alg, _ = compression.DetectFromPath(cfg.Path)
	}

	var written int64
	err = cfg.Store.WriteAtomic(ctx, cfg.Path, func(w io.Writer) error {
		cw := &countingWriter{w: w}
		enc, err := compression.NewWriter(alg, cw, cfg.CompressionLevel)
		if err != nil {
			return err
		}
		if err := fn(enc); err != nil {
			_ = enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWritePermissionDenied, "failed to finish compressed output").
				WithDetail("path", cfg.Path)
		}
		written = cw.n
		return nil
	})
	if err != nil {
		return 0, err
	}

	bc.metrics.Record("compression", string(alg))
	bc.metrics.Add("bytes_written", written)
	return written, nil
}

type countingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && !stderrors.Is(err, io.EOF) && c.err == nil {
		c.err = err
	}
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
