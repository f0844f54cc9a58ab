// Package pipeline runs a sampling job end to end: load a dataset, draw a
// seeded uniform sample without replacement and write it out.
//
// # Overview
//
// A SamplePipeline has three strictly sequential stages on a single
// goroutine:
//   - load: the source decodes the whole input and infers its schema
//   - sample: the sampler selects record indices
//   - write: the destination encodes the sample and commits it atomically
//
// The input is fully loaded before anything is written, so a missing or
// undecodable input never produces an output. Each stage is logged, timed
// into the run metrics and traced as its own span; the context is checked
// between stages.
//
// # Basic Usage
//
//	cfg := config.NewSampleConfig()
//	cfg.InputPath = "data/train.geojson"
//	cfg.OutputPath = "data/1000samples.geojson"
//
//	result, err := pipeline.SampleAndExport(ctx, cfg)
//	if err != nil {
//	    switch errors.TypeOf(err) {
//	    case errors.ErrorTypeSampleSizeExceedsPopulation:
//	        // ask for fewer records
//	    }
//	}
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/logger"
	"github.com/ajitpratap0/geosample/pkg/metrics"
	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/observability"
	"github.com/ajitpratap0/geosample/pkg/sampler"
)

// Stage names a pipeline stage in logs, metrics and spans
type Stage string

const (
	StageLoad   Stage = "load"
	StageSample Stage = "sample"
	StageWrite  Stage = "write"
)

// Result summarizes a finished run.
type Result struct {
	RunID        string
	InputPath    string
	OutputPath   string
	InputFormat  string
	OutputFormat string
	// Loaded is the number of records in the input
	Loaded int
	// Sampled is the number of records written
	Sampled int
	// Schema is the inferred schema of the input, shared by the output
	Schema   *models.Schema
	Duration time.Duration
}

// SamplePipeline connects a source, a sampler and a destination.
type SamplePipeline struct {
	source      core.Source
	sampler     *sampler.Sampler
	destination core.Destination

	logger  *zap.Logger
	metrics *metrics.PipelineMetrics
	tracer  trace.Tracer
}

// NewSamplePipeline creates a pipeline. Only the logger, metrics and tracer
// options apply; the remaining options are used by SampleAndExport.
func NewSamplePipeline(source core.Source, s *sampler.Sampler, destination core.Destination, opts ...Option) *SamplePipeline {
	o := newOptions(opts)
	return &SamplePipeline{
		source:      source,
		sampler:     s,
		destination: destination,
		logger:      o.logger.With(zap.String("component", "sample_pipeline")),
		metrics:     o.metrics,
		tracer:      o.tracer,
	}
}

// Metrics returns the run metrics the pipeline records into
func (p *SamplePipeline) Metrics() *metrics.PipelineMetrics {
	return p.metrics
}

// Run executes load, sample and write in order and stops at the first error.
func (p *SamplePipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := logger.FromContext(ctx, p.logger)

	log.Info("starting sampling run",
		zap.String("source", p.source.Name()),
		zap.String("destination", p.destination.Name()),
		zap.Int("sample_size", p.sampler.Size),
		zap.Float64("fraction", p.sampler.Fraction),
		zap.Int64("seed", p.sampler.Seed))

	ctx, span := observability.StartSpan(ctx, p.tracer, "sample_and_export")
	span.SetAttribute("run.id", runID)

	result := &Result{RunID: runID}
	err := p.run(ctx, log, result)
	span.End(err)

	result.Duration = time.Since(start)
	if err != nil {
		p.metrics.RecordRun(string(errors.TypeOf(err)))
		log.Error("sampling run failed",
			zap.String("error_kind", string(errors.TypeOf(err))),
			zap.Any("details", errors.DetailsOf(err)),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return nil, err
	}

	p.metrics.RecordRun(metrics.ResultSuccess)
	log.Info("sampling run completed",
		zap.Int("loaded", result.Loaded),
		zap.Int("sampled", result.Sampled),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *SamplePipeline) run(ctx context.Context, log *zap.Logger, result *Result) error {
	var ds, sample *models.Dataset

	err := p.stage(ctx, StageLoad, func(ctx context.Context, span *observability.Span) error {
		var err error
		if ds, err = p.source.Load(ctx); err != nil {
			return err
		}
		span.SetAttribute("records", ds.Len())
		p.metrics.RecordsLoaded.Add(float64(ds.Len()))
		if n, ok := p.source.Metrics()["bytes_read"].(int64); ok {
			p.metrics.BytesRead.Add(float64(n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	result.Loaded = ds.Len()
	result.Schema = ds.Schema

	err = p.stage(ctx, StageSample, func(_ context.Context, span *observability.Span) error {
		var err error
		if sample, err = p.sampler.Sample(ds); err != nil {
			return err
		}
		span.SetAttribute("records", sample.Len())
		p.metrics.RecordsSampled.Add(float64(sample.Len()))
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, StageWrite, func(ctx context.Context, span *observability.Span) error {
		if err := p.destination.Write(ctx, sample); err != nil {
			return err
		}
		span.SetAttribute("records", sample.Len())
		p.metrics.RecordsWritten.Add(float64(sample.Len()))
		if n, ok := p.destination.Metrics()["bytes_written"].(int64); ok {
			p.metrics.BytesWritten.Add(float64(n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	result.Sampled = sample.Len()

	if err := p.metrics.UpdateResidentMemory(); err != nil {
		log.Debug("failed to sample resident memory", zap.Error(err))
	}
	return nil
}

// stage runs fn as a traced, timed and logged pipeline stage.
func (p *SamplePipeline) stage(ctx context.Context, stage Stage, fn func(context.Context, *observability.Span) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "run cancelled before "+string(stage))
	}

	ctx = context.WithValue(ctx, logger.StageKey, string(stage))
	timer := metrics.NewTimer(string(stage))
	err := observability.TraceStage(ctx, p.tracer, string(stage), fn)
	elapsed := timer.Stop()
	p.metrics.ObserveStage(string(stage), elapsed)

	if err != nil {
		return err
	}
	logger.FromContext(ctx, p.logger).Debug("stage completed", zap.Duration("duration", elapsed))
	return nil
}
