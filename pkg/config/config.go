// Package config provides the configuration for a sampling run.
//
// SampleConfig holds every setting of a run as explicit, serializable
// options. The four recognized top-level options are
// input_path, output_path, sample_size and seed; the nested sections cover
// format hints, compression, storage backends and observability.
//
// Example usage:
//
//	cfg := config.NewSampleConfig()
//	cfg.InputPath = "s3://datasets/train.geojson"
//	cfg.SampleSize = 500
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultInputPath is the dataset location relative to the base path
	DefaultInputPath = "../Assets/data/train.geojson"
	// DefaultOutputPath is the subsample location relative to the base path
	DefaultOutputPath = "data/1000samples.geojson"
	// DefaultSampleSize is the number of records drawn when nothing else is configured
	DefaultSampleSize = 1000
	// DefaultSeed fixes the generator state for reproducible samples
	DefaultSeed int64 = 1
)

// SampleConfig is the complete configuration of a sampling run.
type SampleConfig struct {
	// Name identifies the run in logs and metrics
	Name string `yaml:"name" json:"name"`

	// BasePath anchors relative local paths (defaults to the working directory)
	BasePath string `yaml:"base_path" json:"base_path"`
	// InputPath is the source dataset: a local path, file://, s3:// or gs:// URI
	InputPath string `yaml:"input_path" json:"input_path"`
	// OutputPath is the destination dataset: a local path, file://, s3:// or gs:// URI
	OutputPath string `yaml:"output_path" json:"output_path"`
	// SampleSize is the number of records to draw (N)
	SampleSize int `yaml:"sample_size" json:"sample_size"`
	// Seed fixes the pseudo-random generator state
	Seed int64 `yaml:"seed" json:"seed"`

	Input         InputConfig         `yaml:"input" json:"input"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Sampling      SamplingConfig      `yaml:"sampling" json:"sampling"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// InputConfig contains optional hints for reading the source dataset.
type InputConfig struct {
	// Format overrides extension-based detection (geojson, geojsonseq)
	Format string `yaml:"format" json:"format"`
	// Compression overrides suffix-based detection (none, gzip, zstd, lz4, snappy, s2)
	Compression string `yaml:"compression" json:"compression"`
}

// OutputConfig contains options for writing the subsample.
type OutputConfig struct {
	// Format overrides extension-based detection (geojson, geojsonseq)
	Format string `yaml:"format" json:"format"`
	// Compression overrides suffix-based detection
	Compression string `yaml:"compression" json:"compression"`
	// CompressionLevel sets compression ratio vs speed (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
	// Pretty indents the output document
	Pretty bool `yaml:"pretty" json:"pretty"`
	// Indent is the indentation unit used when Pretty is set
	Indent string `yaml:"indent" json:"indent"`
	// CreateDirs creates missing parent directories for local outputs
	CreateDirs bool `yaml:"create_dirs" json:"create_dirs"`
}

// SamplingConfig contains optional sampling behavior.
type SamplingConfig struct {
	// Fraction draws round(fraction * population) records instead of SampleSize when > 0
	Fraction float64 `yaml:"fraction" json:"fraction"`
	// PreserveOrder emits sampled records in source order instead of draw order
	PreserveOrder bool `yaml:"preserve_order" json:"preserve_order"`
}

// StorageConfig configures the remote object stores.
type StorageConfig struct {
	S3  S3Config  `yaml:"s3" json:"s3"`
	GCS GCSConfig `yaml:"gcs" json:"gcs"`
}

// S3Config configures access to Amazon S3 and S3-compatible services.
type S3Config struct {
	Region       string `yaml:"region" json:"region"`
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" json:"use_path_style"`
	// PartSizeMB is the multipart upload part size
	PartSizeMB int64 `yaml:"part_size_mb" json:"part_size_mb"`
}

// GCSConfig configures access to Google Cloud Storage.
type GCSConfig struct {
	// CredentialsFile is a service account key; empty uses application default credentials
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFormat selects the zap encoder (json, console)
	LogFormat string `yaml:"log_format" json:"log_format"`
	// EnableTracing exports one span per pipeline stage to stderr
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// MetricsFile writes Prometheus metrics in textfile-collector format after the run
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
}

// NewSampleConfig creates a SampleConfig with the defaults:
// 1000 records, seed 1, from ../Assets/data/train.geojson to
// data/1000samples.geojson.
func NewSampleConfig() *SampleConfig {
	return &SampleConfig{
		Name:       "geosample",
		InputPath:  DefaultInputPath,
		OutputPath: DefaultOutputPath,
		SampleSize: DefaultSampleSize,
		Seed:       DefaultSeed,
		Output: OutputConfig{
			CompressionLevel: 6,
			Indent:           "  ",
			CreateDirs:       true,
		},
		Storage: StorageConfig{
			S3: S3Config{
				PartSizeMB: 5,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate validates the configuration for correctness.
func (c *SampleConfig) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("input_path is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output_path is required")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size cannot be negative")
	}
	if c.Sampling.Fraction < 0 || c.Sampling.Fraction > 1 {
		return fmt.Errorf("sampling.fraction must be within [0, 1]")
	}
	if c.Output.CompressionLevel < 0 || c.Output.CompressionLevel > 9 {
		return fmt.Errorf("output.compression_level must be within [0, 9]")
	}
	if c.Storage.S3.PartSizeMB < 0 {
		return fmt.Errorf("storage.s3.part_size_mb cannot be negative")
	}
	if IsLocalPath(c.InputPath) && IsLocalPath(c.OutputPath) &&
		sameLocalFile(c.resolve(c.InputPath), c.resolve(c.OutputPath)) {
		return fmt.Errorf("output_path must differ from input_path")
	}
	return nil
}

// sameLocalFile reports whether a and b name the same file, either lexically
// or, when both exist, through links.
func sameLocalFile(a, b string) bool {
	a, b = absPath(a), absPath(b)
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func absPath(path string) string {
	path = filepath.Clean(strings.TrimPrefix(path, "file://"))
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// ResolvePaths anchors relative local paths at BasePath. Remote URIs and
// absolute paths are left unchanged.
func (c *SampleConfig) ResolvePaths() {
	c.InputPath = c.resolve(c.InputPath)
	c.OutputPath = c.resolve(c.OutputPath)
}

func (c *SampleConfig) resolve(path string) string {
	if !IsLocalPath(path) || c.BasePath == "" {
		return path
	}
	path = strings.TrimPrefix(path, "file://")
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.BasePath, path)
}

// UsesFraction returns true if the sample size is derived from the population
func (s *SamplingConfig) UsesFraction() bool {
	return s.Fraction > 0
}

// IsLocalPath returns true if path refers to the local filesystem
func IsLocalPath(path string) bool {
	return !strings.HasPrefix(path, "s3://") && !strings.HasPrefix(path, "gs://")
}
