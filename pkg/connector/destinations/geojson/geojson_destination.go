// Package geojson provides destination connectors that encode datasets as
// GeoJSON FeatureCollection documents or feature-per-line sequences.
package geojson

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/compression"
	"github.com/ajitpratap0/geosample/pkg/connector/base"
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	jsonpool "github.com/ajitpratap0/geosample/pkg/json"
	"github.com/ajitpratap0/geosample/pkg/models"
)

// GeoJSONDestination writes a dataset in one of the GeoJSON encodings.
type GeoJSONDestination struct {
	*base.BaseConnector

	config   *core.DestinationConfig
	sequence bool
	// recordSeparator prefixes each sequence line with RS (RFC 8142)
	recordSeparator bool
}

// NewCollectionDestination creates a destination writing one FeatureCollection.
func NewCollectionDestination(config *core.DestinationConfig) (core.Destination, error) {
	return newDestination(core.FormatGeoJSON, config, false)
}

// NewSequenceDestination creates a destination writing one feature per line.
// Paths ending in .geojsons or .geojsonseq get RFC 8142 record separators.
func NewSequenceDestination(config *core.DestinationConfig) (core.Destination, error) {
	return newDestination(core.FormatGeoJSONSeq, config, true)
}

func newDestination(name string, config *core.DestinationConfig, sequence bool) (*GeoJSONDestination, error) {
	if config == nil || config.Path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "missing required destination path")
	}

	d := &GeoJSONDestination{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeDestination, config.Logger),
		config:        config,
		sequence:      sequence,
	}
	if sequence {
		_, inner := compression.DetectFromPath(config.Path)
		switch strings.ToLower(path.Ext(inner)) {
		case ".geojsons", ".geojsonseq":
			d.recordSeparator = true
		}
	}
	return d, nil
}

// Write encodes ds and commits it atomically through the configured store.
func (d *GeoJSONDestination) Write(ctx context.Context, ds *models.Dataset) error {
	start := time.Now()

	encode := d.writeCollection
	if d.sequence {
		encode = d.writeSequence
	}

	written, err := d.WriteOutput(ctx, d.config, func(w io.Writer) error {
		return encode(w, ds)
	})
	if err != nil {
		return err
	}

	d.GetMetricsCollector().Add("records_written", int64(ds.Len()))
	d.GetLogger().Debug("dataset encoded",
		zap.String("path", d.config.Path),
		zap.Int("records", ds.Len()),
		zap.Int64("bytes", written),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// writeCollection emits the type, the collection members, a recomputed bbox
// when the source carried one, then each record's original encoding.
func (d *GeoJSONDestination) writeCollection(w io.Writer, ds *models.Dataset) error {
	buf := jsonpool.GetBuffer()
	defer jsonpool.PutBuffer(buf)

	buf.WriteString(`{"type":"FeatureCollection"`)

	keys := make([]string, 0, len(ds.Members))
	for k := range ds.Members {
		if k == "type" || k == "features" || k == "bbox" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeMember(buf, k, ds.Members[k]); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode collection member").
				WithDetail("member", k)
		}
	}

	if ds.HasBBox {
		if bound, ok := ds.Bound(); ok {
			if err := writeMember(buf, "bbox", []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode bbox")
			}
		}
	}

	buf.WriteString(`,"features":[`)
	for i := range ds.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := d.appendRecord(buf, ds, i); err != nil {
			return err
		}
	}
	buf.WriteString("]}")

	data := buf.Bytes()
	if d.config.Pretty {
		pretty := jsonpool.GetBuffer()
		defer jsonpool.PutBuffer(pretty)

		indent := d.config.Indent
		if indent == "" {
			indent = "  "
		}
		if err := jsonpool.Indent(pretty, data, indent); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to indent feature collection")
		}
		data = pretty.Bytes()
	}

	if _, err := w.Write(data); err != nil {
		return d.writeError(err)
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return d.writeError(err)
	}
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := jsonpool.Marshal(key)
	if err != nil {
		return err
	}
	v, err := jsonpool.Marshal(value)
	if err != nil {
		return err
	}
	buf.WriteByte(',')
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// appendRecord appends the i-th record on a single line.
func (d *GeoJSONDestination) appendRecord(buf *bytes.Buffer, ds *models.Dataset, i int) error {
	data, err := ds.RecordJSON(i)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode feature").
			WithDetail("index", i)
	}
	if err := jsonpool.Compact(buf, data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode feature").
			WithDetail("index", i)
	}
	return nil
}

func (d *GeoJSONDestination) writeSequence(w io.Writer, ds *models.Dataset) error {
	var line bytes.Buffer
	for i := range ds.Records {
		line.Reset()
		if d.recordSeparator {
			line.WriteByte(0x1e)
		}
		if err := d.appendRecord(&line, ds, i); err != nil {
			return err
		}
		line.WriteByte('\n')

		if _, err := w.Write(line.Bytes()); err != nil {
			return d.writeError(err)
		}
	}
	return nil
}

func (d *GeoJSONDestination) writeError(err error) error {
	return errors.Wrap(err, errors.ErrorTypeWritePermissionDenied, "failed to write output").
		WithDetail("path", d.config.Path)
}
