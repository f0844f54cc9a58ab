// Package destinations registers every destination connector with the
// connector registry. Import it for its side effects.
package destinations

import (
	// Import all destination connectors to trigger init() registration
	_ "github.com/ajitpratap0/geosample/pkg/connector/destinations/geojson"
)
