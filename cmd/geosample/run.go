package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/internal/pipeline"
	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/logger"
	"github.com/ajitpratap0/geosample/pkg/observability"
	"github.com/ajitpratap0/geosample/pkg/performance/profiling"
)

// EnvPrefix prefixes the environment variables that override settings,
// e.g. GEOSAMPLE_SIZE or GEOSAMPLE_LOG_LEVEL
const EnvPrefix = "GEOSAMPLE"

// setting maps a flag (and its environment variable) onto the config
type setting struct {
	key   string
	apply func(v *viper.Viper, cfg *config.SampleConfig)
}

var settings = []setting{
	{"input", func(v *viper.Viper, c *config.SampleConfig) { c.InputPath = v.GetString("input") }},
	{"output", func(v *viper.Viper, c *config.SampleConfig) { c.OutputPath = v.GetString("output") }},
	{"size", func(v *viper.Viper, c *config.SampleConfig) { c.SampleSize = v.GetInt("size") }},
	{"seed", func(v *viper.Viper, c *config.SampleConfig) { c.Seed = v.GetInt64("seed") }},
	{"fraction", func(v *viper.Viper, c *config.SampleConfig) { c.Sampling.Fraction = v.GetFloat64("fraction") }},
	{"preserve-order", func(v *viper.Viper, c *config.SampleConfig) { c.Sampling.PreserveOrder = v.GetBool("preserve-order") }},
	{"base-path", func(v *viper.Viper, c *config.SampleConfig) { c.BasePath = v.GetString("base-path") }},
	{"input-format", func(v *viper.Viper, c *config.SampleConfig) { c.Input.Format = v.GetString("input-format") }},
	{"input-compression", func(v *viper.Viper, c *config.SampleConfig) { c.Input.Compression = v.GetString("input-compression") }},
	{"output-format", func(v *viper.Viper, c *config.SampleConfig) { c.Output.Format = v.GetString("output-format") }},
	{"output-compression", func(v *viper.Viper, c *config.SampleConfig) { c.Output.Compression = v.GetString("output-compression") }},
	{"compression-level", func(v *viper.Viper, c *config.SampleConfig) { c.Output.CompressionLevel = v.GetInt("compression-level") }},
	{"pretty", func(v *viper.Viper, c *config.SampleConfig) { c.Output.Pretty = v.GetBool("pretty") }},
	{"log-level", func(v *viper.Viper, c *config.SampleConfig) { c.Observability.LogLevel = v.GetString("log-level") }},
	{"log-format", func(v *viper.Viper, c *config.SampleConfig) { c.Observability.LogFormat = v.GetString("log-format") }},
	{"trace", func(v *viper.Viper, c *config.SampleConfig) { c.Observability.EnableTracing = v.GetBool("trace") }},
	{"metrics-file", func(v *viper.Viper, c *config.SampleConfig) { c.Observability.MetricsFile = v.GetString("metrics-file") }},
}

func newRunCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sample a dataset",
		Long: `Draw a uniform random sample of records from the input dataset and write it
to the output path. The same input, size and seed always produce the same output.

Settings are layered: built-in defaults, then the --config YAML file, then
GEOSAMPLE_* environment variables, then explicit flags.

Example:
  geosample run -i ../Assets/data/train.geojson -o data/1000samples.geojson -n 1000 --seed 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}
			profile, err := profileConfig(v)
			if err != nil {
				return err
			}
			return runSample(cmd, cfg, profile)
		},
	}

	defaults := config.NewSampleConfig()
	f := cmd.Flags()
	f.StringP("config", "c", "", "Path to a YAML run configuration")
	f.StringP("input", "i", defaults.InputPath, "Input dataset (path, file://, s3:// or gs:// URI)")
	f.StringP("output", "o", defaults.OutputPath, "Output dataset (path, file://, s3:// or gs:// URI)")
	f.IntP("size", "n", defaults.SampleSize, "Number of records to draw")
	f.Int64("seed", defaults.Seed, "Seed of the pseudo-random generator")
	f.Float64("fraction", 0, "Draw this fraction of the input instead of --size (0 < f <= 1)")
	f.Bool("preserve-order", false, "Write sampled records in input order instead of draw order")
	f.String("base-path", "", "Directory that relative local paths are resolved against")
	f.String("input-format", "", "Input format, overriding the file extension (geojson, geojsonseq)")
	f.String("input-compression", "", "Input compression, overriding detection (none, gzip, zstd, lz4, snappy, s2)")
	f.String("output-format", "", "Output format, overriding the file extension (geojson, geojsonseq)")
	f.String("output-compression", "", "Output compression, overriding the file suffix")
	f.Int("compression-level", defaults.Output.CompressionLevel, "Output compression level (1-9)")
	f.Bool("pretty", false, "Indent the output document")
	f.String("log-level", defaults.Observability.LogLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", defaults.Observability.LogFormat, "Log encoding (json, console)")
	f.Bool("trace", false, "Export one trace span per pipeline stage to stderr")
	f.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.String("profile", "", "Capture profiles during the run (cpu, memory, trace, all)")
	f.String("profile-dir", "./profiles", "Directory for profile files")

	for _, s := range settings {
		_ = v.BindPFlag(s.key, f.Lookup(s.key))
	}
	for _, key := range []string{"config", "profile", "profile-dir"} {
		_ = v.BindPFlag(key, f.Lookup(key))
	}
	cmd.MarkFlagsMutuallyExclusive("size", "fraction")

	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// buildConfig layers the YAML file, environment and flags over the defaults.
// viper reports a key as set only when its flag changed or its environment
// variable exists, and prefers the flag.
func buildConfig(v *viper.Viper) (*config.SampleConfig, error) {
	cfg := config.NewSampleConfig()

	if path := v.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load configuration").
				WithDetail("path", path)
		}
	}

	for _, s := range settings {
		if v.IsSet(s.key) {
			s.apply(v, cfg)
		}
	}

	return cfg, nil
}

// profileConfig returns nil when no profiles were requested
func profileConfig(v *viper.Viper) (*profiling.ProfileConfig, error) {
	types, err := profiling.ParseTypes(v.GetString("profile"))
	if err != nil || len(types) == 0 {
		return nil, err
	}
	return &profiling.ProfileConfig{
		Types:     types,
		OutputDir: v.GetString("profile-dir"),
	}, nil
}

func runSample(cmd *cobra.Command, cfg *config.SampleConfig, profile *profiling.ProfileConfig) error {
	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogFormat,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.EnableTracing,
		ServiceName:    "geosample",
		ServiceVersion: version,
		Writer:         os.Stderr,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down tracing", zap.Error(err))
		}
	}()

	log := logger.With(zap.String("component", "geosample-cli"))

	var result *pipeline.Result
	run := func() error {
		var err error
		result, err = pipeline.SampleAndExport(ctx, cfg,
			pipeline.WithLogger(log),
			pipeline.WithTracer(observability.Tracer()))
		return err
	}

	if profile != nil {
		report, err := profiling.ProfileRun(profile, log, run)
		if err != nil {
			return err
		}
		for _, f := range report.Files {
			fmt.Fprintf(cmd.OutOrStdout(), "profile written to %s\n", f)
		}
	} else if err := run(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d of %d records to %s (seed %d, %s)\n",
		result.Sampled, result.Loaded, result.OutputPath, cfg.Seed, result.Duration.Round(time.Millisecond))
	return nil
}
