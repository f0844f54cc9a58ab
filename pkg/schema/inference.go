// Package schema infers the attribute schema of a vector dataset.
package schema

import (
	"math"
	"sort"

	"github.com/ajitpratap0/geosample/pkg/models"
	"go.uber.org/zap"
)

// TypeInferenceEngine derives field types from record properties
type TypeInferenceEngine struct {
	logger *zap.Logger
}

// InferredType represents a type inference result for one field
type InferredType struct {
	Type         string         `json:"type"`
	Nullable     bool           `json:"nullable"`
	Present      int            `json:"present"`
	NumericStats *NumericStats  `json:"numeric_stats,omitempty"`

	distribution map[string]int
}

// NumericStats holds statistics for numeric fields
type NumericStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewTypeInferenceEngine creates a new type inference engine
func NewTypeInferenceEngine(logger *zap.Logger) *TypeInferenceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeInferenceEngine{logger: logger}
}

// InferSchema infers the schema of the given records. Every record is
// inspected; a field missing from some record is nullable.
func (e *TypeInferenceEngine) InferSchema(name string, records []*models.Record) *models.Schema {
	values := make(map[string][]interface{})
	geometryTypes := make(map[string]struct{})

	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Geometry != nil {
			geometryTypes[r.Geometry.GeoJSONType()] = struct{}{}
		}
		for key, value := range r.Properties {
			values[key] = append(values[key], value)
		}
	}

	fields := make([]models.Field, 0, len(values))
	for fieldName, vals := range values {
		inferred := e.InferType(vals)
		field := models.Field{
			Name:     fieldName,
			Type:     inferred.Type,
			Nullable: inferred.Nullable || len(vals) < len(records),
			Present:  inferred.Present,
		}
		if inferred.NumericStats != nil {
			field.Range = &models.Range{Min: inferred.NumericStats.Min, Max: inferred.NumericStats.Max}
		}
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	types := make([]string, 0, len(geometryTypes))
	for t := range geometryTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	e.logger.Debug("schema inferred",
		zap.String("name", name),
		zap.Int("fields", len(fields)),
		zap.Strings("geometry_types", types))

	return &models.Schema{
		Name:          name,
		GeometryTypes: types,
		Fields:        fields,
	}
}

// InferType infers the type of a field from its values
func (e *TypeInferenceEngine) InferType(values []interface{}) *InferredType {
	inferred := &InferredType{
		Type:         models.FieldTypeNull,
		distribution: make(map[string]int),
	}

	for _, v := range values {
		if v == nil {
			inferred.Nullable = true
			continue
		}
		inferred.Present++

		typ := detectValueType(v)
		inferred.distribution[typ]++

		if f, ok := v.(float64); ok {
			if inferred.NumericStats == nil {
				inferred.NumericStats = &NumericStats{Min: f, Max: f}
			}
			inferred.NumericStats.Min = math.Min(inferred.NumericStats.Min, f)
			inferred.NumericStats.Max = math.Max(inferred.NumericStats.Max, f)
		}
	}

	inferred.Type = dominantType(inferred.distribution)
	return inferred
}

// dominantType resolves the observed types into one: integers widen to
// floats, any other mix is reported as mixed.
func dominantType(distribution map[string]int) string {
	switch len(distribution) {
	case 0:
		return models.FieldTypeNull
	case 1:
		for typ := range distribution {
			return typ
		}
	case 2:
		if distribution[models.FieldTypeInteger] > 0 && distribution[models.FieldTypeFloat] > 0 {
			return models.FieldTypeFloat
		}
	}
	return models.FieldTypeMixed
}

// detectValueType detects the type of a single decoded JSON value
func detectValueType(value interface{}) string {
	switch v := value.(type) {
	case bool:
		return models.FieldTypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return models.FieldTypeInteger
	case float32:
		return detectValueType(float64(v))
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return models.FieldTypeInteger
		}
		return models.FieldTypeFloat
	case string:
		return models.FieldTypeString
	case []interface{}:
		return models.FieldTypeArray
	case map[string]interface{}:
		return models.FieldTypeObject
	default:
		return models.FieldTypeMixed
	}
}
