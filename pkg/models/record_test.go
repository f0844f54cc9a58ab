package models_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/testutil"
)

func TestFromFeatureCollection(t *testing.T) {
	fc := testutil.GenerateFeatureCollection(4)
	fc.BBox = geojson.NewBBox(orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}})

	ds := models.FromFeatureCollection("train", fc)
	assert.Equal(t, "train", ds.Name)
	assert.Equal(t, 4, ds.Len())
	assert.True(t, ds.HasBBox)
	assert.Equal(t, "train", ds.Members["name"])

	// members are copied, not shared with the collection
	ds.Members["extra"] = true
	assert.NotContains(t, fc.ExtraMembers, "extra")
}

func TestSubset(t *testing.T) {
	ds := models.FromFeatureCollection("train", testutil.GenerateFeatureCollection(10))
	ds.Schema = &models.Schema{Name: "train"}

	sub := ds.Subset([]int{7, 2, 9})
	require.Equal(t, 3, sub.Len())
	assert.Same(t, ds.Records[7], sub.Records[0])
	assert.Same(t, ds.Records[2], sub.Records[1])
	assert.Same(t, ds.Records[9], sub.Records[2])
	assert.Same(t, ds.Schema, sub.Schema)
	assert.Equal(t, ds.Members, sub.Members)

	empty := ds.Subset(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Same(t, ds.Schema, empty.Schema)
}

func TestBound(t *testing.T) {
	ds := models.NewDataset("points", []*models.Record{
		geojson.NewFeature(orb.Point{1, 2}),
		{Type: "Feature", Properties: geojson.Properties{}},
		geojson.NewFeature(orb.Point{-3, 5}),
	})

	bound, ok := ds.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-3, 2}, bound.Min)
	assert.Equal(t, orb.Point{1, 5}, bound.Max)

	_, ok = models.NewDataset("empty", nil).Bound()
	assert.False(t, ok)
}

func TestRecordJSON(t *testing.T) {
	t.Run("original bytes win", func(t *testing.T) {
		ds := models.NewDataset("points", nil)
		raw := []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2,3]},"properties":{"big":9007199254740993}}`)
		f, err := geojson.UnmarshalFeature(raw)
		require.NoError(t, err)
		ds.Append(f, raw)

		data, err := ds.RecordJSON(0)
		require.NoError(t, err)
		assert.Equal(t, raw, data)

		sub := ds.Subset([]int{0})
		data, err = sub.RecordJSON(0)
		require.NoError(t, err)
		assert.Equal(t, raw, data)
	})

	t.Run("in-memory records are encoded", func(t *testing.T) {
		ds := models.NewDataset("points", []*models.Record{geojson.NewFeature(orb.Point{1, 2})})
		data, err := ds.RecordJSON(0)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"coordinates":[1,2]`)
		assert.Nil(t, ds.Subset([]int{0}).Raw)
	})
}

func TestSchemaLookup(t *testing.T) {
	s := &models.Schema{Fields: []models.Field{
		{Name: "area", Type: models.FieldTypeFloat},
		{Name: "label", Type: models.FieldTypeString, Nullable: true},
	}}

	f, ok := s.Field("label")
	require.True(t, ok)
	assert.True(t, f.Nullable)

	_, ok = s.Field("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"area", "label"}, s.FieldNames())
}
