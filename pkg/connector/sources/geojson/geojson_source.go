// Package geojson provides source connectors for GeoJSON datasets: RFC 7946
// FeatureCollection documents and feature-per-line sequences (RFC 8142 text
// sequences and newline-delimited GeoJSON).
package geojson

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/connector/base"
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/schema"
)

const (
	typeFeatureCollection = "FeatureCollection"
	// cancelCheckInterval is how many sequence lines are decoded between context checks
	cancelCheckInterval = 10000
)

// GeoJSONSource loads a dataset in one of the GeoJSON encodings.
type GeoJSONSource struct {
	*base.BaseConnector

	config   *core.SourceConfig
	sequence bool
	engine   *schema.TypeInferenceEngine
}

// NewCollectionSource creates a source for FeatureCollection documents.
func NewCollectionSource(config *core.SourceConfig) (core.Source, error) {
	return newSource(core.FormatGeoJSON, config, false)
}

// NewSequenceSource creates a source for feature-per-line sequences.
func NewSequenceSource(config *core.SourceConfig) (core.Source, error) {
	return newSource(core.FormatGeoJSONSeq, config, true)
}

func newSource(name string, config *core.SourceConfig, sequence bool) (*GeoJSONSource, error) {
	if config == nil || config.Path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "missing required source path")
	}
	bc := base.NewBaseConnector(name, core.ConnectorTypeSource, config.Logger)
	return &GeoJSONSource{
		BaseConnector: bc,
		config:        config,
		sequence:      sequence,
		engine:        schema.NewTypeInferenceEngine(bc.GetLogger()),
	}, nil
}

// Load reads every feature, keeps the collection's foreign members and
// infers the attribute schema.
func (s *GeoJSONSource) Load(ctx context.Context) (*models.Dataset, error) {
	in, err := s.OpenInput(ctx, s.config)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var ds *models.Dataset
	if s.sequence {
		ds, err = s.decodeSequence(ctx, in)
	} else {
		ds, err = s.decodeCollection(in)
	}
	if err != nil {
		return nil, err
	}

	ds.Schema = s.engine.InferSchema(s.config.Path, ds.Records)

	collector := s.GetMetricsCollector()
	collector.Add("records_read", int64(ds.Len()))
	collector.Add("bytes_read", in.BytesRead())

	s.GetLogger().Debug("dataset decoded",
		zap.String("path", s.config.Path),
		zap.Int("records", ds.Len()),
		zap.Int64("bytes", in.BytesRead()),
		zap.Strings("geometry_types", ds.Schema.GeometryTypes))

	return ds, nil
}

func (s *GeoJSONSource) decodeCollection(in *base.Input) (*models.Dataset, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, base.DecodeError(in, err, "failed to read input", s.config.Path)
	}

	var doc map[string]gojson.RawMessage
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, base.DecodeError(in, err, "input is not a GeoJSON feature collection", s.config.Path)
	}

	var typ string
	if raw, ok := doc["type"]; ok {
		_ = gojson.Unmarshal(raw, &typ)
	}
	if typ != typeFeatureCollection {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat,
			"input is not a GeoJSON feature collection: type %q", typ).
			WithDetail("path", s.config.Path)
	}

	var features []gojson.RawMessage
	if raw, ok := doc["features"]; ok && !isNull(raw) {
		if err := gojson.Unmarshal(raw, &features); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedFormat, "features member is not an array").
				WithDetail("path", s.config.Path)
		}
	}

	ds := models.NewDataset(s.config.Path, nil)
	ds.Records = make([]*models.Record, 0, len(features))
	ds.Raw = make([]gojson.RawMessage, 0, len(features))
	for i, raw := range features {
		f, err := decodeFeature(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedFormat, "invalid GeoJSON feature").
				WithDetail("path", s.config.Path).
				WithDetail("index", i)
		}
		ds.Append(f, raw)
	}

	for k, raw := range doc {
		switch k {
		case "type", "features":
			continue
		case "bbox":
			ds.HasBBox = !isNull(raw)
			continue
		}
		v, err := decodeMember(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedFormat, "invalid collection member").
				WithDetail("path", s.config.Path).
				WithDetail("member", k)
		}
		ds.Members[k] = v
	}

	return ds, nil
}

func decodeFeature(raw []byte) (*models.Record, error) {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return nil, err
	}
	if f.Type != "Feature" {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat, "unexpected type %q", f.Type)
	}
	return f, nil
}

// decodeMember keeps numbers as their literal text.
func decodeMember(raw []byte) (interface{}, error) {
	dec := gojson.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decodeSequence reads one feature per line. Leading RS characters (RFC 8142)
// and blank lines are skipped.
func (s *GeoJSONSource) decodeSequence(ctx context.Context, in *base.Input) (*models.Dataset, error) {
	ds := models.NewDataset(s.config.Path, nil)
	ds.Records = make([]*models.Record, 0, 1024)
	ds.Raw = make([]gojson.RawMessage, 0, 1024)

	br := bufio.NewReaderSize(in, 64*1024)
	for line := 1; ; line++ {
		raw, readErr := br.ReadBytes('\n')
		if readErr != nil && !stderrors.Is(readErr, io.EOF) {
			return nil, base.DecodeError(in, readErr, "failed to read input", s.config.Path)
		}

		if line%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal, "load cancelled")
			}
		}

		text := bytes.TrimSpace(bytes.TrimLeft(raw, "\x1e"))
		if len(text) > 0 {
			f, err := decodeFeature(text)
			if err != nil {
				return nil, base.DecodeError(in, err, "invalid GeoJSON feature", s.config.Path).
					WithDetail("line", line)
			}
			ds.Append(f, text)
		}

		if readErr != nil {
			break
		}
	}

	return ds, nil
}
