package pipeline

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/connector/registry"
	"github.com/ajitpratap0/geosample/pkg/logger"
	"github.com/ajitpratap0/geosample/pkg/metrics"
	"github.com/ajitpratap0/geosample/pkg/observability"
	"github.com/ajitpratap0/geosample/pkg/storage"
)

// Option configures a pipeline run
type Option func(*options)

type options struct {
	logger   *zap.Logger
	metrics  *metrics.PipelineMetrics
	tracer   trace.Tracer
	resolver *storage.Resolver
	registry *registry.Registry
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.metrics == nil {
		o.metrics = metrics.New("geosample")
	}
	if o.tracer == nil {
		o.tracer = observability.Tracer()
	}
	if o.registry == nil {
		o.registry = registry.GetRegistry()
	}
	return o
}

// WithLogger sets the run logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records into m instead of a fresh PipelineMetrics
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer used for stage spans
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithResolver supplies the storage resolver; the caller keeps ownership
func WithResolver(r *storage.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithRegistry resolves formats and connectors from r instead of the global registry
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}
