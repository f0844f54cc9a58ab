package geojson

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/models"
	"github.com/ajitpratap0/geosample/pkg/storage"
	"github.com/ajitpratap0/geosample/pkg/testutil"
)

func sourceConfig(t *testing.T, path string) *core.SourceConfig {
	return &core.SourceConfig{
		Path:   path,
		Store:  storage.NewLocalStore(false),
		Logger: testutil.TestLogger(t),
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestCollectionSourceLoad(t *testing.T) {
	ctx := context.Background()
	fc := testutil.GenerateFeatureCollection(30)
	data := testutil.MarshalFeatureCollection(t, fc)

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"plain", "train.geojson", data},
		{"gzip suffix", "train.geojson.gz", gzipped(t, data)},
		{"gzip sniffed", "train.geojson", gzipped(t, data)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewCollectionSource(sourceConfig(t, writeFile(t, tt.file, tt.data)))
			require.NoError(t, err)

			ds, err := src.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, 30, ds.Len())
			assert.Equal(t, testutil.FeatureIDs(fc.Features), testutil.FeatureIDs(ds.Records))
			assert.Equal(t, "train", ds.Members["name"])
			assert.Contains(t, ds.Members, "crs")

			require.NotNil(t, ds.Schema)
			assert.Equal(t, []string{"area", "fid", "label", "name", "valid"}, ds.Schema.FieldNames())
			assert.Equal(t, []string{"LineString", "Point", "Polygon"}, ds.Schema.GeometryTypes)

			label, ok := ds.Schema.Field("label")
			require.True(t, ok)
			assert.True(t, label.Nullable)
			assert.Equal(t, models.FieldTypeString, label.Type)

			metrics := src.Metrics()
			assert.Equal(t, int64(30), metrics["records_read"])
			assert.Equal(t, int64(len(tt.data)), metrics["bytes_read"])
		})
	}
}

func TestCollectionSourceErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		data    []byte
		errType errors.ErrorType
	}{
		{"not json", "bad.geojson", []byte("this is not json"), errors.ErrorTypeUnsupportedFormat},
		{"single feature", "feature.geojson", []byte(`{"type":"Feature","geometry":null,"properties":{}}`), errors.ErrorTypeUnsupportedFormat},
		{"plain object", "obj.json", []byte(`{"hello":"world"}`), errors.ErrorTypeUnsupportedFormat},
		{"empty", "empty.geojson", nil, errors.ErrorTypeUnsupportedFormat},
		{"corrupt gzip", "train.geojson.gz", []byte("definitely not gzip"), errors.ErrorTypeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewCollectionSource(sourceConfig(t, writeFile(t, tt.file, tt.data)))
			require.NoError(t, err)

			_, err = src.Load(ctx)
			require.Error(t, err)
			assert.Equal(t, tt.errType, errors.TypeOf(err), err.Error())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		src, err := NewCollectionSource(sourceConfig(t, filepath.Join(t.TempDir(), "missing.geojson")))
		require.NoError(t, err)
		_, err = src.Load(ctx)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInputNotFound))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewCollectionSource(&core.SourceConfig{})
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestSequenceSourceLoad(t *testing.T) {
	ctx := context.Background()
	content := "\x1e{\"type\":\"Feature\",\"id\":1,\"geometry\":{\"type\":\"Point\",\"coordinates\":[1,2]},\"properties\":{\"fid\":1}}\n" +
		"\n" +
		"{\"type\":\"Feature\",\"id\":2,\"geometry\":null,\"properties\":{\"fid\":2}}\n" +
		"\x1e{\"type\":\"Feature\",\"geometry\":{\"type\":\"Point\",\"coordinates\":[3,4]},\"properties\":{\"fid\":3}}"

	src, err := NewSequenceSource(sourceConfig(t, writeFile(t, "train.geojsons", []byte(content))))
	require.NoError(t, err)

	ds, err := src.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []int{1, 2, 3}, testutil.FeatureIDs(ds.Records))
	assert.Nil(t, ds.Records[1].Geometry)
	assert.Empty(t, ds.Members)
	assert.Equal(t, "geojsonseq", src.Name())
}

func TestSequenceSourceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid line", func(t *testing.T) {
		content := "{\"type\":\"Feature\",\"geometry\":null,\"properties\":{}}\n{broken\n"
		src, err := NewSequenceSource(sourceConfig(t, writeFile(t, "bad.geojsonl", []byte(content))))
		require.NoError(t, err)

		_, err = src.Load(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))
		assert.Equal(t, 2, errors.DetailsOf(err)["line"])
	})

	t.Run("empty file is an empty dataset", func(t *testing.T) {
		src, err := NewSequenceSource(sourceConfig(t, writeFile(t, "empty.geojsonl", nil)))
		require.NoError(t, err)

		ds, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Len())
	})
}

func TestSourceKeepsOriginalEncoding(t *testing.T) {
	ctx := context.Background()
	feature := `{"type":"Feature","id":9007199254740993,"geometry":{"type":"Point","coordinates":[1,2,3]},"properties":{}}`

	src, err := NewCollectionSource(sourceConfig(t, writeFile(t, "train.geojson",
		[]byte(`{"type":"FeatureCollection","features":[ `+feature+` ]}`))))
	require.NoError(t, err)
	ds, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Raw, 1)
	assert.Equal(t, feature, string(ds.Raw[0]))

	src, err = NewSequenceSource(sourceConfig(t, writeFile(t, "train.geojsonl", []byte("\x1e"+feature+"\r\n"))))
	require.NoError(t, err)
	ds, err = src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Raw, 1)
	assert.Equal(t, feature, string(ds.Raw[0]))
}
