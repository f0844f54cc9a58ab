// Package testutil provides testing utilities for geosample
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// GenerateFeatureCollection builds a deterministic collection of n features
// cycling through point, line and polygon geometries. Every feature has a
// distinct "fid" property so features can be told apart after sampling.
func GenerateFeatureCollection(n int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"name": "train",
		"crs": map[string]interface{}{
			"type": "name",
			"properties": map[string]interface{}{
				"name": "urn:ogc:def:crs:OGC:1.3:CRS84",
			},
		},
	}

	for i := 0; i < n; i++ {
		x, y := float64(i%360)-180+0.5, float64(i%170)-85+0.25

		var g orb.Geometry
		switch i % 3 {
		case 0:
			g = orb.Point{x, y}
		case 1:
			g = orb.LineString{{x, y}, {x + 0.25, y + 0.5}}
		default:
			g = orb.Polygon{{{x, y}, {x + 0.5, y}, {x + 0.5, y + 0.5}, {x, y}}}
		}

		f := geojson.NewFeature(g)
		f.ID = float64(i)
		f.Properties["fid"] = float64(i)
		f.Properties["name"] = fmt.Sprintf("feature-%d", i)
		f.Properties["area"] = float64(i) * 1.25
		f.Properties["valid"] = i%2 == 0
		if i%5 == 0 {
			f.Properties["label"] = nil
		} else {
			f.Properties["label"] = fmt.Sprintf("class-%d", i%4)
		}
		fc.Append(f)
	}

	return fc
}

// MarshalFeatureCollection encodes fc or fails the test.
func MarshalFeatureCollection(t *testing.T, fc *geojson.FeatureCollection) []byte {
	t.Helper()
	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("failed to marshal feature collection: %v", err)
	}
	return data
}

// FeatureIDs returns the "fid" property of every feature, in order.
func FeatureIDs(features []*geojson.Feature) []int {
	ids := make([]int, len(features))
	for i, f := range features {
		fid, _ := f.Properties["fid"].(float64)
		ids[i] = int(fid)
	}
	return ids
}

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
