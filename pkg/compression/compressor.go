// Package compression provides streaming compression for dataset files.
//
// Inputs and outputs may be wrapped in any of the supported codecs. The
// codec is chosen explicitly, from the path suffix (train.geojson.gz), or
// by sniffing the leading magic bytes of an input stream.
//
// # Basic Usage
//
//	alg, inner := compression.DetectFromPath("train.geojson.zst")
//	// alg == compression.Zstd, inner == "train.geojson"
//
//	w, err := compression.NewWriter(alg, file, 6)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
// Readers and writers never close the underlying stream; callers own it.
//
// # Algorithms
//
// Speed (fastest to slowest): LZ4 > Snappy/S2 > Zstd > Gzip
// Compression ratio (best to worst): Zstd > Gzip > Snappy/S2 > LZ4
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// Algorithms lists the supported codecs.
var Algorithms = []Algorithm{Gzip, Zstd, LZ4, Snappy, S2}

var suffixes = map[string]Algorithm{
	".gz":     Gzip,
	".gzip":   Gzip,
	".zst":    Zstd,
	".zstd":   Zstd,
	".lz4":    LZ4,
	".sz":     Snappy,
	".snappy": Snappy,
	".s2":     S2,
}

var magics = []struct {
	prefix []byte
	alg    Algorithm
}{
	{[]byte{0x1f, 0x8b}, Gzip},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
	{[]byte{0x04, 0x22, 0x4d, 0x18}, LZ4},
	{[]byte("\xff\x06\x00\x00sNaPpY"), Snappy},
	{[]byte("\xff\x06\x00\x00S2sTwO"), S2},
}

// MagicLen is the number of leading bytes Sniff needs to recognize every codec.
const MagicLen = 10

// ParseAlgorithm converts a configured codec name. The empty string and
// "auto" yield ok=false, meaning the caller should detect the codec.
func ParseAlgorithm(name string) (alg Algorithm, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return None, false, nil
	case "none":
		return None, true, nil
	case "gzip", "gz":
		return Gzip, true, nil
	case "zstd", "zst":
		return Zstd, true, nil
	case "lz4":
		return LZ4, true, nil
	case "snappy", "sz":
		return Snappy, true, nil
	case "s2":
		return S2, true, nil
	}
	return None, false, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", name)
}

// DetectFromPath returns the codec implied by the path's last suffix and
// the path with that suffix removed. Paths without a codec suffix return
// None and the path unchanged.
func DetectFromPath(path string) (Algorithm, string) {
	dot := strings.LastIndex(path, ".")
	if dot < 0 || strings.ContainsAny(path[dot:], "/\\") {
		return None, path
	}
	if alg, ok := suffixes[strings.ToLower(path[dot:])]; ok {
		return alg, path[:dot]
	}
	return None, path
}

// Sniff identifies a codec from the leading bytes of a stream.
func Sniff(header []byte) Algorithm {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.prefix) {
			return m.alg
		}
	}
	return None
}

// Extension returns the canonical file suffix for alg, or "" for None.
func Extension(alg Algorithm) string {
	switch alg {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	case Snappy:
		return ".sz"
	case S2:
		return ".s2"
	}
	return ""
}

// NewReader wraps r with a decompressor for alg. Closing the returned
// reader releases the decompressor but leaves r open.
func NewReader(alg Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", alg)
}

// NewWriter wraps w with a compressor for alg at the given level (1-9, 0
// selects the codec default). Close flushes the compressor but leaves w
// open.
func NewWriter(alg Algorithm, w io.Writer, level int) (io.WriteCloser, error) {
	if level <= 0 {
		level = int(Default)
	}
	if level > int(Best) {
		level = int(Best)
	}

	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		return gw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(Level(level))))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(Level(level)))); err != nil {
			return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
		}
		return lw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w, mapS2Level(Level(level))...), nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", alg)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch {
	case level <= Fastest:
		return lz4.Fast
	case level >= Best:
		return lz4.Level9
	case level >= Better:
		return lz4.Level7
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level <= Fastest:
		return zstd.SpeedFastest
	case level >= Best:
		return zstd.SpeedBestCompression
	case level >= Better:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapS2Level(level Level) []s2.WriterOption {
	switch {
	case level >= Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	case level >= Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	default:
		return nil
	}
}

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Fastest:
		return "Fastest"
	case Default:
		return "Default"
	case Better:
		return "Better"
	case Best:
		return "Best"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}
