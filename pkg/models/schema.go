package models

// Field types produced by schema inference.
const (
	FieldTypeString  = "string"
	FieldTypeInteger = "integer"
	FieldTypeFloat   = "float"
	FieldTypeBoolean = "boolean"
	FieldTypeObject  = "object"
	FieldTypeArray   = "array"
	FieldTypeNull    = "null"
	FieldTypeMixed   = "mixed"
)

// Schema defines the structure of a dataset: its attribute fields and the
// geometry types present.
type Schema struct {
	// Name identifies the schema (usually the dataset name)
	Name string `json:"name"`

	// GeometryTypes lists the GeoJSON geometry types present, sorted
	GeometryTypes []string `json:"geometry_types"`

	// Fields defines the attribute fields, sorted by name
	Fields []Field `json:"fields"`
}

// Field represents a single attribute field in the schema.
type Field struct {
	// Name is the field identifier
	Name string `json:"name"`

	// Type is one of the FieldType constants
	Type string `json:"type"`

	// Nullable is true if some record has a null or missing value
	Nullable bool `json:"nullable"`

	// Present counts the records with a non-null value
	Present int `json:"present"`

	// Range spans the numeric values, if any
	Range *Range `json:"range,omitempty"`
}

// Range is the closed interval of a numeric field's values.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
