// Package metrics provides run metrics for geosample using Prometheus.
//
// Each sampling run owns a PipelineMetrics backed by a private registry, so
// runs never share counters and tests can inspect values directly. After a
// run the registry can be written in the node-exporter textfile format for
// batch jobs that are not scraped.
//
// # Basic Usage
//
//	m := metrics.New("geosample")
//	m.RecordsLoaded.Add(float64(ds.Len()))
//
//	timer := metrics.NewTimer("sample")
//	out, err := s.Sample(ds)
//	m.ObserveStage("sample", timer.Stop())
//
//	if err := m.WriteTextfile("/var/lib/node_exporter/geosample.prom"); err != nil {
//	    logger.Warn("failed to write metrics", zap.Error(err))
//	}
package metrics

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"
)

// Result labels for the runs counter
const (
	ResultSuccess = "success"
)

// PipelineMetrics holds the collectors of one sampling run.
type PipelineMetrics struct {
	registry *prometheus.Registry

	// RecordsLoaded counts records decoded from the input
	RecordsLoaded prometheus.Counter
	// RecordsSampled counts records selected by the sampler
	RecordsSampled prometheus.Counter
	// RecordsWritten counts records encoded to the output
	RecordsWritten prometheus.Counter
	// BytesRead counts input bytes before decompression
	BytesRead prometheus.Counter
	// BytesWritten counts output bytes after compression
	BytesWritten prometheus.Counter
	// StageDuration observes the duration of each pipeline stage
	StageDuration *prometheus.HistogramVec
	// Runs counts finished runs by result (success or error kind)
	Runs *prometheus.CounterVec
	// ResidentMemory is the process RSS at the last update
	ResidentMemory prometheus.Gauge
}

// New creates run metrics registered under namespace on a fresh registry.
func New(namespace string) *PipelineMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PipelineMetrics{
		registry: reg,
		RecordsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Records decoded from the input dataset",
		}),
		RecordsSampled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_sampled_total",
			Help:      "Records selected by the sampler",
		}),
		RecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records encoded to the output dataset",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Bytes read from the input before decompression",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Bytes written to the output after compression",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished sampling runs by result",
		}, []string{"result"}),
		ResidentMemory: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_memory_bytes",
			Help:      "Resident set size of the process",
		}),
	}
}

// Registry returns the registry holding the run's collectors.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the duration of a pipeline stage.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run.
func (m *PipelineMetrics) RecordRun(result string) {
	m.Runs.WithLabelValues(result).Inc()
}

// UpdateResidentMemory samples the RSS of the current process.
func (m *PipelineMetrics) UpdateResidentMemory() error {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return fmt.Errorf("failed to inspect process: %w", err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return fmt.Errorf("failed to read memory info: %w", err)
	}
	m.ResidentMemory.Set(float64(mem.RSS))
	return nil
}

// WriteTextfile writes every collector to path in the text exposition format.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Collector keeps the counters a single connector reports through Metrics().
type Collector struct {
	name      string
	startTime time.Time

	mu     sync.RWMutex
	values map[string]interface{}
}

// NewCollector creates a collector for a component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
		values:    make(map[string]interface{}),
	}
}

// GetAll returns a copy of all recorded values plus the component name and uptime.
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make(map[string]interface{}, len(c.values)+2)
	for k, v := range c.values {
		all[k] = v
	}
	all["component"] = c.name
	all["uptime"] = time.Since(c.startTime).Seconds()
	return all
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Record sets a metric value
func (c *Collector) Record(name string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// Add increments an integer counter
func (c *Collector) Add(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.values[name].(int64)
	c.values[name] = n + delta
}

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timed operation
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
