// Package json provides high-performance JSON serialization for geosample.
// It backs orb's GeoJSON encoding with goccy/go-json and pools the byte
// buffers used while encoding feature collections.
package json

import (
	"bytes"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

var (
	bufferPool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 4096))
		},
	}
	installOnce sync.Once
)

// Codec implements the marshaler and unmarshaler interfaces orb/geojson
// accepts for custom JSON handling.
type Codec struct{}

// Marshal is a drop-in replacement for json.Marshal
func (Codec) Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func (Codec) Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// InstallGeoJSONCodec makes orb/geojson encode and decode through goccy/go-json.
// It is safe to call more than once.
func InstallGeoJSONCodec() {
	installOnce.Do(func() {
		geojson.CustomJSONMarshaler = Codec{}
		geojson.CustomJSONUnmarshaler = Codec{}
	})
}

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a high-performance drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Indent appends an indented form of src to dst
func Indent(dst *bytes.Buffer, src []byte, indent string) error {
	return gojson.Indent(dst, src, "", indent)
}

// Compact appends to dst the JSON-encoded src with insignificant space removed
func Compact(dst *bytes.Buffer, src []byte) error {
	return gojson.Compact(dst, src)
}

// Valid reports whether data is a valid JSON encoding
func Valid(data []byte) bool {
	return gojson.Valid(data)
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}
