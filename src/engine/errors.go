package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the engine. Callers match them with errors.Is.
var (
	ErrTableExists      = errors.New("table already exists")
	ErrTableNotFound    = errors.New("table does not exist")
	ErrFieldNotFound    = errors.New("field not found")
	ErrFieldExists      = errors.New("field already exists")
	ErrUnknownField     = errors.New("invalid field names in record")
	ErrValidation       = errors.New("record validation failed")
	ErrEmptyJoinResult  = errors.New("no joined records found")
	ErrFileNotFound     = errors.New("database file not found")
	ErrInvalidName      = errors.New("invalid name")
	ErrUnknownFieldType = errors.New("unknown field type")
)

// ValidationError names the field whose value failed its type predicate.
type ValidationError struct {
	Field string
	Type  FieldType
	Value Value
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for field '%s': %s is not a valid %s", e.Field, e.Value, e.Type)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UnknownFieldError lists record keys the table does not define.
type UnknownFieldError struct {
	Table  string
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("invalid field names in record for table '%s': %s", e.Table, strings.Join(e.Fields, ", "))
}

func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrTableExists, "TableExists"},
	{ErrTableNotFound, "TableNotFound"},
	{ErrFieldNotFound, "FieldNotFound"},
	{ErrFieldExists, "FieldExists"},
	{ErrUnknownField, "UnknownFieldError"},
	{ErrValidation, "ValidationError"},
	{ErrEmptyJoinResult, "EmptyJoinResult"},
	{ErrFileNotFound, "FileNotFound"},
	{ErrInvalidName, "InvalidName"},
	{ErrUnknownFieldType, "UnknownFieldType"},
}

// ErrorKind returns the kind name of an engine error, or "Internal" for
// anything the engine does not classify.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}
