package engine

import (
	"fmt"
	"strings"
)

// FieldType is one of the five primitive type tags a field may declare.
type FieldType string

const (
	FieldTypeInteger FieldType = "integer"
	FieldTypeReal    FieldType = "real"
	FieldTypeChar    FieldType = "char"
	FieldTypeString  FieldType = "string"
	FieldTypeTime    FieldType = "time"
)

// FieldTypes lists the supported tags in display order.
var FieldTypes = []FieldType{FieldTypeInteger, FieldTypeReal, FieldTypeChar, FieldTypeString, FieldTypeTime}

// ParseFieldType maps a literal type tag to its FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
	}
	return t, nil
}

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeInteger, FieldTypeReal, FieldTypeChar, FieldTypeString, FieldTypeTime:
		return true
	}
	return false
}

// Field is a named, typed column definition. Fields are values; editing a
// field replaces it.
type Field struct {
	Name string
	Type FieldType
}

// checkName rejects names that cannot be stored as keys of the database
// file: empty names, a leading '$' (read back as an Extended JSON type
// wrapper) and NUL bytes.
func checkName(what, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: %s name cannot be empty", ErrInvalidName, what)
	case strings.HasPrefix(name, "$"):
		return fmt.Errorf("%w: %s name '%s' cannot start with '$'", ErrInvalidName, what, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %s name cannot contain NUL", ErrInvalidName, what)
	}
	return nil
}

// NewField builds a field, rejecting an unusable name or an unknown type.
func NewField(name string, fieldType FieldType) (Field, error) {
	if err := checkName("field", name); err != nil {
		return Field{}, err
	}
	if !fieldType.Valid() {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, fieldType)
	}
	return Field{Name: name, Type: fieldType}, nil
}

// Validate reports whether value satisfies the field's declared type.
// An unrecognised type accepts nothing.
func (f Field) Validate(value Value) bool {
	switch f.Type {
	case FieldTypeInteger:
		return value.Kind() == KindInteger
	case FieldTypeReal:
		return value.Kind() == KindReal
	case FieldTypeChar:
		return value.isSingleChar()
	case FieldTypeString:
		_, ok := value.AsText()
		return ok
	case FieldTypeTime:
		return value.Kind() == KindTime
	}
	return false
}
