// Package models provides the data model shared by every stage of the
// sampling pipeline: records, datasets and their schema.
//
// A Record is a GeoJSON feature, kept as the orb type it was decoded into so
// a sampled record is the very same value that was loaded. Records read from
// a file also keep their original encoding, which is what gets written back:
// orb only models 2D coordinates and decodes numbers as float64, so
// re-encoding the decoded value would drop Z/M ordinates, large integers and
// feature-level foreign members. A Dataset is an ordered collection of
// records plus the collection-level members (name, crs, ...) that describe
// the spatial reference.
package models

import (
	gojson "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Record is a type alias for geojson.Feature: an optional id, one geometry
// and the attribute fields (properties).
type Record = geojson.Feature

// Dataset is an ordered collection of records sharing one schema.
type Dataset struct {
	// Name identifies the dataset (usually the source path)
	Name string

	// Members holds the collection's foreign members (e.g. "name", "crs")
	Members map[string]interface{}

	// HasBBox records whether the source collection carried a bbox member
	HasBBox bool

	// Records holds the features in source order
	Records []*Record

	// Raw holds the encoded form of each record, aligned with Records. It is
	// nil for datasets built in memory.
	Raw []gojson.RawMessage

	// Schema describes the attribute fields and geometry types
	Schema *Schema
}

// NewDataset creates a dataset over the given records.
func NewDataset(name string, records []*Record) *Dataset {
	return &Dataset{
		Name:    name,
		Members: make(map[string]interface{}),
		Records: records,
	}
}

// FromFeatureCollection wraps a decoded feature collection. The features are
// not copied.
func FromFeatureCollection(name string, fc *geojson.FeatureCollection) *Dataset {
	ds := NewDataset(name, fc.Features)
	for k, v := range fc.ExtraMembers {
		ds.Members[k] = v
	}
	ds.HasBBox = len(fc.BBox) > 0
	return ds
}

// Append adds a record together with the bytes it was decoded from.
func (d *Dataset) Append(r *Record, raw gojson.RawMessage) {
	d.Records = append(d.Records, r)
	d.Raw = append(d.Raw, raw)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Subset returns a dataset holding the records at the given indices, in the
// given order. Schema and members are shared with d; records are not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	records := make([]*Record, len(indices))
	for i, idx := range indices {
		records[i] = d.Records[idx]
	}
	var raw []gojson.RawMessage
	if d.hasRaw() {
		raw = make([]gojson.RawMessage, len(indices))
		for i, idx := range indices {
			raw[i] = d.Raw[idx]
		}
	}
	return &Dataset{
		Name:    d.Name,
		Members: d.Members,
		HasBBox: d.HasBBox,
		Records: records,
		Raw:     raw,
		Schema:  d.Schema,
	}
}

func (d *Dataset) hasRaw() bool {
	return d.Raw != nil && len(d.Raw) == len(d.Records)
}

// RecordJSON returns the encoding of the i-th record: the bytes it was read
// from when known, otherwise the orb encoding of the decoded value.
func (d *Dataset) RecordJSON(i int) ([]byte, error) {
	if d.hasRaw() && len(d.Raw[i]) > 0 {
		return d.Raw[i], nil
	}
	return d.Records[i].MarshalJSON()
}

// Bound returns the bounding box of every non-null geometry. ok is false if
// there is none.
func (d *Dataset) Bound() (bound orb.Bound, ok bool) {
	for _, r := range d.Records {
		if r == nil || r.Geometry == nil {
			continue
		}
		if !ok {
			bound, ok = r.Geometry.Bound(), true
			continue
		}
		bound = bound.Union(r.Geometry.Bound())
	}
	return bound, ok
}
