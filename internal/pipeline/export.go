package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/sampler"
	"github.com/ajitpratap0/geosample/pkg/storage"

	// Register the built-in formats
	_ "github.com/ajitpratap0/geosample/pkg/connector/destinations"
	_ "github.com/ajitpratap0/geosample/pkg/connector/sources"
)

// SampleAndExport draws cfg.SampleSize records (or cfg.Sampling.Fraction of
// the input) from cfg.InputPath with cfg.Seed and writes them to
// cfg.OutputPath. Formats come from the configured hints or the path
// extensions; relative local paths are anchored at cfg.BasePath.
//
// Errors carry one of the pkg/errors kinds: input not found, unsupported
// format, sample size exceeds population, write permission denied, or
// config for invalid settings.
func SampleAndExport(ctx context.Context, cfg *config.SampleConfig, opts ...Option) (*Result, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "missing sample configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sample configuration")
	}

	o := newOptions(opts)
	run := *cfg
	run.ResolvePaths()

	outFormat, err := formatFor(o, run.Output.Format, run.OutputPath)
	if err != nil {
		return nil, err
	}

	resolver, closeResolver := o.storageResolver(&run)
	defer closeResolver()

	source, inFormat, err := newSource(ctx, o, resolver, &run)
	if err != nil {
		return nil, err
	}

	outStore, err := resolver.ForPath(ctx, run.OutputPath)
	if err != nil {
		return nil, err
	}

	destination, err := o.registry.CreateDestination(outFormat, &core.DestinationConfig{
		Path:             run.OutputPath,
		Compression:      run.Output.Compression,
		CompressionLevel: run.Output.CompressionLevel,
		Pretty:           run.Output.Pretty,
		Indent:           run.Output.Indent,
		Store:            outStore,
		Logger:           o.logger,
	})
	if err != nil {
		return nil, err
	}

	s := &sampler.Sampler{
		Size:          run.SampleSize,
		Fraction:      run.Sampling.Fraction,
		Seed:          run.Seed,
		PreserveOrder: run.Sampling.PreserveOrder,
	}

	p := &SamplePipeline{
		source:      source,
		sampler:     s,
		destination: destination,
		logger:      o.logger.With(zap.String("component", "sample_pipeline"), zap.String("name", run.Name)),
		metrics:     o.metrics,
		tracer:      o.tracer,
	}

	result, runErr := p.Run(ctx)

	if run.Observability.MetricsFile != "" {
		if err := o.metrics.WriteTextfile(run.Observability.MetricsFile); err != nil {
			o.logger.Warn("failed to write metrics file",
				zap.String("path", run.Observability.MetricsFile),
				zap.Error(err))
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	result.InputPath = run.InputPath
	result.OutputPath = run.OutputPath
	result.InputFormat = inFormat
	result.OutputFormat = outFormat
	return result, nil
}

// LoadDataset loads cfg.InputPath without sampling it. Only the input,
// storage and base path settings of cfg are used.
func LoadDataset(ctx context.Context, cfg *config.SampleConfig, opts ...Option) (*models.Dataset, error) {
	if cfg == nil || cfg.InputPath == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "input_path is required")
	}

	o := newOptions(opts)
	run := *cfg
	run.ResolvePaths()

	resolver, closeResolver := o.storageResolver(&run)
	defer closeResolver()

	source, _, err := newSource(ctx, o, resolver, &run)
	if err != nil {
		return nil, err
	}
	return source.Load(ctx)
}

// storageResolver returns the configured resolver or a new one that the
// returned func closes.
func (o *options) storageResolver(run *config.SampleConfig) (*storage.Resolver, func()) {
	if o.resolver != nil {
		return o.resolver, func() {}
	}

	resolver := storage.NewResolver(run.Storage,
		storage.WithLogger(o.logger),
		storage.WithCreateDirs(run.Output.CreateDirs))
	return resolver, func() {
		if err := resolver.Close(); err != nil {
			o.logger.Warn("failed to close storage clients", zap.Error(err))
		}
	}
}

func newSource(ctx context.Context, o *options, resolver *storage.Resolver, run *config.SampleConfig) (core.Source, string, error) {
	format, err := formatFor(o, run.Input.Format, run.InputPath)
	if err != nil {
		return nil, "", err
	}

	store, err := resolver.ForPath(ctx, run.InputPath)
	if err != nil {
		return nil, "", err
	}

	source, err := o.registry.CreateSource(format, &core.SourceConfig{
		Path:        run.InputPath,
		Compression: run.Input.Compression,
		Store:       store,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, "", err
	}
	return source, format, nil
}

func formatFor(o *options, hint, path string) (string, error) {
	if hint != "" {
		return hint, nil
	}
	return o.registry.FormatForPath(path)
}
