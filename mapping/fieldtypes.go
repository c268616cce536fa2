// Package mapping holds the lookup tables the lowering core consults:
// the caller-supplied field-type map (spec §3/§4.1) and the small
// operator/function name tables the teacher kept in its own mapping
// package (mapping/operators.go, mapping/clauses.go).
package mapping

// FieldType is one of the five coercion targets a column can be typed as.
type FieldType string

const (
	STRING  FieldType = "STRING"
	NUMBER  FieldType = "NUMBER"
	DATE    FieldType = "DATE"
	BOOLEAN FieldType = "BOOLEAN"
	UNKNOWN FieldType = "UNKNOWN"
)

// FieldTypeMap is a read-only mapping from dotted column name to FieldType,
// with a configured fallback for columns it doesn't mention. It is built
// once by the caller and never mutated during lowering (spec §3 Invariants).
type FieldTypeMap struct {
	types   map[string]FieldType
	Default FieldType
}

// NewFieldTypeMap builds a FieldTypeMap. A zero Default is normalized to
// UNKNOWN, matching spec §3's "default UNKNOWN" rule.
func NewFieldTypeMap(types map[string]FieldType, defaultType FieldType) *FieldTypeMap {
	if defaultType == "" {
		defaultType = UNKNOWN
	}
	if types == nil {
		types = map[string]FieldType{}
	}
	return &FieldTypeMap{types: types, Default: defaultType}
}

// Lookup returns the FieldType for a dotted column name, falling back to
// Default when the column is not present in the map. An empty column name
// (e.g. a literal with no associated column) always resolves to Default.
func (m *FieldTypeMap) Lookup(column string) FieldType {
	if m == nil {
		return UNKNOWN
	}
	if column == "" {
		return m.Default
	}
	if t, ok := m.types[column]; ok {
		return t
	}
	return m.Default
}
