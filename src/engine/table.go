package engine

import (
	"fmt"
	"sort"
)

// Table is a named schema (ordered field list) plus the records added to it.
type Table struct {
	Name    string
	fields  []Field
	records []Record
}

// FieldDefinition is the serialised form of a field.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// TableData is the structured view of a table: its fields in order and the
// data of every record.
type TableData struct {
	Fields  []FieldDefinition  `json:"fields"`
	Records []map[string]Value `json:"records"`
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Fields returns a copy of the field list in order.
func (t *Table) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

func (t *Table) indexOf(name string) int {
	for i, f := range t.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field looks up a field by name.
func (t *Table) Field(name string) (Field, bool) {
	i := t.indexOf(name)
	if i < 0 {
		return Field{}, false
	}
	return t.fields[i], true
}

// AddField appends a field. Field names are unique within a table.
func (t *Table) AddField(field Field) error {
	if err := checkName("field", field.Name); err != nil {
		return err
	}
	if t.indexOf(field.Name) >= 0 {
		return fmt.Errorf("%w: '%s' in table '%s'", ErrFieldExists, field.Name, t.Name)
	}
	t.fields = append(t.fields, field)
	return nil
}

// EditField replaces the field named oldName in place. Stored records are
// not re-validated against the new definition.
func (t *Table) EditField(oldName string, newField Field) error {
	i := t.indexOf(oldName)
	if i < 0 {
		return fmt.Errorf("%w: '%s' in table '%s'", ErrFieldNotFound, oldName, t.Name)
	}
	if err := checkName("field", newField.Name); err != nil {
		return err
	}
	if newField.Name != oldName && t.indexOf(newField.Name) >= 0 {
		return fmt.Errorf("%w: '%s' in table '%s'", ErrFieldExists, newField.Name, t.Name)
	}
	t.fields[i] = newField
	return nil
}

// RemoveField drops a field from the schema. Record data stored under the
// name is kept as is.
func (t *Table) RemoveField(name string) error {
	i := t.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: '%s' in table '%s'", ErrFieldNotFound, name, t.Name)
	}
	t.fields = append(t.fields[:i], t.fields[i+1:]...)
	return nil
}

// AddRecord stores record if every key names a current field and every value
// passes validation. On failure nothing is stored.
func (t *Table) AddRecord(record Record) error {
	var unknown []string
	for key := range record.Data {
		if t.indexOf(key) < 0 {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownFieldError{Table: t.Name, Fields: unknown}
	}

	if err := record.Validate(t.fields); err != nil {
		return fmt.Errorf("table '%s': %w", t.Name, err)
	}

	t.records = append(t.records, NewRecord(record.Data))
	return nil
}

// Len returns the number of stored records.
func (t *Table) Len() int {
	return len(t.records)
}

// ViewRecords returns a copy of every record's data in insertion order.
func (t *Table) ViewRecords() []map[string]Value {
	out := make([]map[string]Value, len(t.records))
	for i, r := range t.records {
		out[i] = copyData(r.Data)
	}
	return out
}

// ToDict returns the structured form of the table.
func (t *Table) ToDict() TableData {
	fields := make([]FieldDefinition, len(t.fields))
	for i, f := range t.fields {
		fields[i] = FieldDefinition{Name: f.Name, Type: f.Type}
	}
	return TableData{
		Fields:  fields,
		Records: t.ViewRecords(),
	}
}

// FromDict rebuilds a table by re-adding its fields and records through the
// normal validation path.
func FromDict(name string, data TableData) (*Table, error) {
	table := NewTable(name)
	for _, def := range data.Fields {
		field, err := NewField(def.Name, def.Type)
		if err != nil {
			return nil, fmt.Errorf("table '%s': %w", name, err)
		}
		if err := table.AddField(field); err != nil {
			return nil, err
		}
	}
	for i, recordData := range data.Records {
		if err := table.AddRecord(NewRecord(recordData)); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return table, nil
}
