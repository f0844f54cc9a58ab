// Package sources registers every source connector with the connector
// registry. Import it for its side effects.
package sources

import (
	// Import all source connectors to trigger init() registration
	_ "github.com/ajitpratap0/geosample/pkg/connector/sources/geojson"
)
