package registry

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/compression"
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/logger"
)

// Registry manages format registration and connector instantiation
type Registry struct {
	sources      map[string]SourceFactory
	destinations map[string]DestinationFactory
	extensions   map[string]string
	formats      map[string]*FormatInfo
	mu           sync.RWMutex
	logger       *zap.Logger
}

// SourceFactory creates a source connector for one format.
type SourceFactory func(config *core.SourceConfig) (core.Source, error)

// DestinationFactory creates a destination connector for one format.
type DestinationFactory func(config *core.DestinationConfig) (core.Destination, error)

// FormatInfo describes a registered format
type FormatInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions"`
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]SourceFactory),
		destinations: make(map[string]DestinationFactory),
		extensions:   make(map[string]string),
		formats:      make(map[string]*FormatInfo),
		logger:       logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(name string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("source connector %s already registered", name))
	}

	r.sources[name] = factory
	r.logger.Debug("source connector registered", zap.String("name", name))
	return nil
}

// RegisterDestination registers a destination connector factory
func (r *Registry) RegisterDestination(name string, factory DestinationFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.destinations[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("destination connector %s already registered", name))
	}

	r.destinations[name] = factory
	r.logger.Debug("destination connector registered", zap.String("name", name))
	return nil
}

// RegisterFormat records a format's description and maps its extensions to
// it. Registering the same format twice merges the extension lists; mapping
// an extension to a second format is an error.
func (r *Registry) RegisterFormat(info *FormatInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range info.Extensions {
		ext = normalizeExt(ext)
		if owner, exists := r.extensions[ext]; exists && owner != info.Name {
			return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("extension %s already registered for %s", ext, owner))
		}
	}

	existing, ok := r.formats[info.Name]
	if !ok {
		existing = &FormatInfo{Name: info.Name, Description: info.Description}
		r.formats[info.Name] = existing
	}
	for _, ext := range info.Extensions {
		ext = normalizeExt(ext)
		if _, exists := r.extensions[ext]; !exists {
			r.extensions[ext] = info.Name
			existing.Extensions = append(existing.Extensions, ext)
		}
	}
	return nil
}

// RegisterExtension maps a file extension to a registered format name
func (r *Registry) RegisterExtension(ext, format string) error {
	return r.RegisterFormat(&FormatInfo{Name: format, Extensions: []string{ext}})
}

// FormatForPath returns the format implied by p's extension, ignoring a
// trailing compression suffix (train.geojson.gz is geojson).
func (r *Registry) FormatForPath(p string) (string, error) {
	_, inner := compression.DetectFromPath(p)
	ext := normalizeExt(path.Ext(inner))

	r.mu.RLock()
	format, ok := r.extensions[ext]
	r.mu.RUnlock()

	if !ok {
		return "", errors.New(errors.ErrorTypeUnsupportedFormat, fmt.Sprintf("unrecognized file extension %q", ext)).
			WithDetail("path", p)
	}
	return format, nil
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(name string, config *core.SourceConfig) (core.Source, error) {
	r.mu.RLock()
	factory, exists := r.sources[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeUnsupportedFormat, fmt.Sprintf("no source registered for format %s", name))
	}

	source, err := factory(config)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create source connector %s", name))
	}

	return source, nil
}

// CreateDestination creates a destination connector instance
func (r *Registry) CreateDestination(name string, config *core.DestinationConfig) (core.Destination, error) {
	r.mu.RLock()
	factory, exists := r.destinations[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeUnsupportedFormat, fmt.Sprintf("no destination registered for format %s", name))
	}

	destination, err := factory(config)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create destination connector %s", name))
	}

	return destination, nil
}

// ListSources returns the sorted names of registered source connectors
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.sources))
	for name := range r.sources {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	return sources
}

// ListDestinations returns the sorted names of registered destination connectors
func (r *Registry) ListDestinations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	destinations := make([]string, 0, len(r.destinations))
	for name := range r.destinations {
		destinations = append(destinations, name)
	}
	sort.Strings(destinations)
	return destinations
}

// ListFormats returns every registered format sorted by name
func (r *Registry) ListFormats() []FormatInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]FormatInfo, 0, len(r.formats))
	for _, info := range r.formats {
		c := *info
		c.Extensions = append([]string(nil), info.Extensions...)
		sort.Strings(c.Extensions)
		infos = append(infos, c)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[name]
	return exists
}

// HasDestination checks if a destination connector is registered
func (r *Registry) HasDestination(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.destinations[name]
	return exists
}

// Clear removes all registrations (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = make(map[string]SourceFactory)
	r.destinations = make(map[string]DestinationFactory)
	r.extensions = make(map[string]string)
	r.formats = make(map[string]*FormatInfo)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Global registry functions

// RegisterSource registers a source connector in the global registry
func RegisterSource(name string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, factory)
}

// RegisterDestination registers a destination connector in the global registry
func RegisterDestination(name string, factory DestinationFactory) error {
	return globalRegistry.RegisterDestination(name, factory)
}

// RegisterFormat registers format metadata in the global registry
func RegisterFormat(info *FormatInfo) error {
	return globalRegistry.RegisterFormat(info)
}

// RegisterExtension maps an extension to a format in the global registry
func RegisterExtension(ext, format string) error {
	return globalRegistry.RegisterExtension(ext, format)
}

// FormatForPath resolves a path's format from the global registry
func FormatForPath(p string) (string, error) {
	return globalRegistry.FormatForPath(p)
}

// CreateSource creates a source connector from the global registry
func CreateSource(name string, config *core.SourceConfig) (core.Source, error) {
	return globalRegistry.CreateSource(name, config)
}

// CreateDestination creates a destination connector from the global registry
func CreateDestination(name string, config *core.DestinationConfig) (core.Destination, error) {
	return globalRegistry.CreateDestination(name, config)
}

// ListSources returns registered sources from the global registry
func ListSources() []string {
	return globalRegistry.ListSources()
}

// ListDestinations returns registered destinations from the global registry
func ListDestinations() []string {
	return globalRegistry.ListDestinations()
}

// ListFormats returns registered formats from the global registry
func ListFormats() []FormatInfo {
	return globalRegistry.ListFormats()
}

// HasSource checks if a source is registered in the global registry
func HasSource(name string) bool {
	return globalRegistry.HasSource(name)
}

// HasDestination checks if a destination is registered in the global registry
func HasDestination(name string) bool {
	return globalRegistry.HasDestination(name)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
