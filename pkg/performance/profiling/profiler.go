// Package profiling captures pprof profiles and an execution trace around a
// sampling run.
package profiling

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/errors"
)

// ProfileType represents the type of profiling to perform
type ProfileType string

const (
	CPUProfile    ProfileType = "cpu"
	MemoryProfile ProfileType = "memory"
	TraceProfile  ProfileType = "trace"
	AllProfiles   ProfileType = "all"
)

// ParseTypes parses a comma separated list such as "cpu,memory".
func ParseTypes(s string) ([]ProfileType, error) {
	var types []ProfileType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch ProfileType(part) {
		case "":
			continue
		case CPUProfile, MemoryProfile, TraceProfile:
			types = append(types, ProfileType(part))
		case AllProfiles:
			return []ProfileType{CPUProfile, MemoryProfile, TraceProfile}, nil
		default:
			return nil, errors.Newf(errors.ErrorTypeConfig, "unknown profile type %q", part)
		}
	}
	return types, nil
}

// ProfileConfig contains configuration for profiling
type ProfileConfig struct {
	// Profile types to collect
	Types []ProfileType

	// Output directory for profile files
	OutputDir string

	// Memory profile rate (0 = default rate)
	MemProfileRate int
}

// DefaultProfileConfig returns a default profiling configuration
func DefaultProfileConfig() *ProfileConfig {
	return &ProfileConfig{
		Types:     []ProfileType{CPUProfile, MemoryProfile},
		OutputDir: "./profiles",
	}
}

// RuntimeMetrics contains runtime memory and GC figures at the end of a run
type RuntimeMetrics struct {
	AllocBytes      uint64
	TotalAllocBytes uint64
	SysBytes        uint64
	NumGC           uint32
	GCPauseTotal    time.Duration
	NumGoroutines   int
}

// Report lists what a profiling session produced
type Report struct {
	Duration time.Duration
	Files    []string
	Runtime  RuntimeMetrics
}

// Profiler collects the configured profiles between Start and Stop.
type Profiler struct {
	config    *ProfileConfig
	logger    *zap.Logger
	startTime time.Time
	cpuFile   *os.File
	traceFile *os.File
	files     []string
}

// NewProfiler creates a new profiler instance
func NewProfiler(config *ProfileConfig, logger *zap.Logger) *Profiler {
	if config == nil {
		config = DefaultProfileConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		config: config,
		logger: logger.With(zap.String("component", "profiler")),
	}
}

// Start begins CPU profiling and execution tracing when requested.
func (p *Profiler) Start() error {
	p.startTime = time.Now()

	if err := os.MkdirAll(p.config.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create profile directory").
			WithDetail("path", p.config.OutputDir)
	}

	if p.config.MemProfileRate > 0 {
		runtime.MemProfileRate = p.config.MemProfileRate
	}

	for _, profileType := range p.config.Types {
		switch profileType {
		case CPUProfile:
			if err := p.startCPUProfile(); err != nil {
				p.stopRunning()
				return err
			}
		case TraceProfile:
			if err := p.startTrace(); err != nil {
				p.stopRunning()
				return err
			}
		}
	}

	p.logger.Debug("profiling started",
		zap.String("output_dir", p.config.OutputDir),
		zap.Any("types", p.config.Types))
	return nil
}

// Stop ends profiling, writes the heap profile when requested and returns
// the produced files.
func (p *Profiler) Stop() (*Report, error) {
	p.stopRunning()

	for _, profileType := range p.config.Types {
		if profileType == MemoryProfile {
			if err := p.saveMemoryProfile(); err != nil {
				return nil, err
			}
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	report := &Report{
		Duration: time.Since(p.startTime),
		Files:    p.files,
		Runtime: RuntimeMetrics{
			AllocBytes:      memStats.Alloc,
			TotalAllocBytes: memStats.TotalAlloc,
			SysBytes:        memStats.Sys,
			NumGC:           memStats.NumGC,
			GCPauseTotal:    time.Duration(memStats.PauseTotalNs),
			NumGoroutines:   runtime.NumGoroutine(),
		},
	}

	p.logger.Info("profiling completed",
		zap.Duration("duration", report.Duration),
		zap.Strings("files", report.Files),
		zap.Uint64("total_alloc_bytes", report.Runtime.TotalAllocBytes),
		zap.Uint32("gc_runs", report.Runtime.NumGC))
	return report, nil
}

func (p *Profiler) stopRunning() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}
	if p.traceFile != nil {
		trace.Stop()
		_ = p.traceFile.Close()
		p.traceFile = nil
	}
}

func (p *Profiler) startCPUProfile() error {
	file, err := p.create("cpu", "prof")
	if err != nil {
		return err
	}

	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start CPU profiling")
	}
	p.cpuFile = file
	return nil
}

func (p *Profiler) startTrace() error {
	file, err := p.create("trace", "out")
	if err != nil {
		return err
	}

	if err := trace.Start(file); err != nil {
		_ = file.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start tracing")
	}
	p.traceFile = file
	return nil
}

func (p *Profiler) saveMemoryProfile() error {
	file, err := p.create("memory", "prof")
	if err != nil {
		return err
	}
	defer file.Close()

	runtime.GC() // up-to-date heap statistics
	if err := pprof.WriteHeapProfile(file); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write memory profile")
	}
	return nil
}

func (p *Profiler) create(kind, ext string) (*os.File, error) {
	name := filepath.Join(p.config.OutputDir, fmt.Sprintf("%s_%s.%s", kind, p.startTime.Format("20060102_150405"), ext))
	file, err := os.Create(name) //nolint:gosec // G304: directory comes from configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create "+kind+" profile file").
			WithDetail("path", name)
	}
	p.files = append(p.files, name)
	return file, nil
}

// ProfileRun profiles fn. The run error is returned alongside the report.
func ProfileRun(config *ProfileConfig, logger *zap.Logger, fn func() error) (*Report, error) {
	profiler := NewProfiler(config, logger)
	if err := profiler.Start(); err != nil {
		return nil, err
	}

	runErr := fn()

	report, err := profiler.Stop()
	if err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, err
	}
	return report, runErr
}
