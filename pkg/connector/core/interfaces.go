package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/storage"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)

// Registered format names
const (
	// FormatGeoJSON is an RFC 7946 FeatureCollection document
	FormatGeoJSON = "geojson"
	// FormatGeoJSONSeq is one feature per line, optionally RS-prefixed (RFC 8142)
	FormatGeoJSONSeq = "geojsonseq"
)

// SourceConfig describes where and how a source reads its dataset.
type SourceConfig struct {
	// Path is a local path or storage URI
	Path string
	// Compression names the codec; empty detects it from the suffix or content
	Compression string
	// Store holds the object at Path
	Store storage.Store
	Logger *zap.Logger
}

// DestinationConfig describes where and how a destination writes its dataset.
type DestinationConfig struct {
	// Path is a local path or storage URI
	Path string
	// Compression names the codec; empty detects it from the suffix
	Compression      string
	CompressionLevel int
	// Pretty indents collection documents with Indent
	Pretty bool
	Indent string
	// Store receives the object at Path
	Store  storage.Store
	Logger *zap.Logger
}

// Source is the interface that all source connectors must implement
type Source interface {
	// Name returns the format the source decodes
	Name() string
	// Load reads the whole dataset and infers its schema
	Load(ctx context.Context) (*models.Dataset, error)
	// Metrics returns counters collected during Load
	Metrics() map[string]interface{}
}

// Destination is the interface that all destination connectors must implement
type Destination interface {
	// Name returns the format the destination encodes
	Name() string
	// Write encodes ds and commits it atomically
	Write(ctx context.Context, ds *models.Dataset) error
	// Metrics returns counters collected during Write
	Metrics() map[string]interface{}
}
