package json

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallGeoJSONCodec(t *testing.T) {
	InstallGeoJSONCodec()
	InstallGeoJSONCodec()

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{1.5, -2})
	f.Properties["name"] = "a"
	fc.Append(f)

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.True(t, Valid(data))

	decoded, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, decoded.Features, 1)
	assert.Equal(t, orb.Point{1.5, -2}, decoded.Features[0].Geometry)
	assert.Equal(t, "a", decoded.Features[0].Properties["name"])
}

func TestIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Indent(&buf, []byte(`{"a":[1,2]}`), "  "))
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", buf.String())
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("dirty")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
}
