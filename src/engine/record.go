package engine

// Record is one row: a possibly partial map from field name to value.
type Record struct {
	Data map[string]Value
}

// NewRecord copies data so later changes by the caller do not reach the table.
func NewRecord(data map[string]Value) Record {
	return Record{Data: copyData(data)}
}

// Validate checks every present key against its field. Absent fields are
// not checked. The first violation is returned as a *ValidationError.
func (r Record) Validate(fields []Field) error {
	for _, field := range fields {
		value, ok := r.Data[field.Name]
		if !ok {
			continue
		}
		if !field.Validate(value) {
			return &ValidationError{Field: field.Name, Type: field.Type, Value: value}
		}
	}
	return nil
}

func copyData(data map[string]Value) map[string]Value {
	out := make(map[string]Value, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
