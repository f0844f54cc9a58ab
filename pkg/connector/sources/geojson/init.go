package geojson

import (
	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/connector/registry"
	"github.com/ajitpratap0/geosample/pkg/json"
)

func init() {
	json.InstallGeoJSONCodec()

	registry.RegisterSource(core.FormatGeoJSON, NewCollectionSource)
	registry.RegisterSource(core.FormatGeoJSONSeq, NewSequenceSource)

	registry.RegisterFormat(&registry.FormatInfo{
		Name:        core.FormatGeoJSON,
		Description: "RFC 7946 GeoJSON FeatureCollection",
		Extensions:  []string{".geojson", ".json"},
	})
	registry.RegisterFormat(&registry.FormatInfo{
		Name:        core.FormatGeoJSONSeq,
		Description: "GeoJSON text sequence (RFC 8142) or newline-delimited features",
		Extensions:  []string{".geojsons", ".geojsonseq", ".geojsonl", ".ndjson"},
	})
}
