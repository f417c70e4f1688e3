package engine

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var databaseNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// IsValidDatabaseName reports whether name can be used as a database name.
// Database names become file names, so they start with a letter and contain
// only letters, digits, underscores and hyphens.
func IsValidDatabaseName(name string) bool {
	return databaseNameRegex.MatchString(name)
}

// Database is a named set of tables. It is not safe for concurrent use;
// callers sharing one Database must serialise access to it.
type Database struct {
	// DatabaseID identifies this in-memory instance.
	DatabaseID string

	// Name is the name of the database and the base name of its file.
	Name string

	tables map[string]*Table
	store  DatabaseStore
}

// NewDatabase creates an empty database. store may be nil, in which case
// SaveToDisk and LoadFromDisk fail.
func NewDatabase(name string, store DatabaseStore) (*Database, error) {
	if !IsValidDatabaseName(name) {
		return nil, fmt.Errorf("%w: database name '%s' must start with a letter and contain only letters, digits, underscores and hyphens", ErrInvalidName, name)
	}
	return &Database{
		Name:   name,
		tables: make(map[string]*Table),
		store:  store,
	}, nil
}

func (db *Database) table(name string) (*Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
	}
	return t, nil
}

// CreateTable adds an empty table.
func (db *Database) CreateTable(name string) error {
	if err := checkName("table", name); err != nil {
		return err
	}
	if _, exists := db.tables[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrTableExists, name)
	}
	db.tables[name] = NewTable(name)
	return nil
}

// RemoveTable deletes a table and all of its records.
func (db *Database) RemoveTable(name string) error {
	if _, err := db.table(name); err != nil {
		return err
	}
	delete(db.tables, name)
	return nil
}

// TableNames returns the names of all tables, sorted.
func (db *Database) TableNames() []string {
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *Database) AddFieldToTable(tableName string, field Field) error {
	t, err := db.table(tableName)
	if err != nil {
		return err
	}
	return t.AddField(field)
}

func (db *Database) EditFieldInTable(tableName, oldFieldName string, newField Field) error {
	t, err := db.table(tableName)
	if err != nil {
		return err
	}
	return t.EditField(oldFieldName, newField)
}

func (db *Database) RemoveFieldFromTable(tableName, fieldName string) error {
	t, err := db.table(tableName)
	if err != nil {
		return err
	}
	return t.RemoveField(fieldName)
}

func (db *Database) AddRecordToTable(tableName string, recordData map[string]Value) error {
	t, err := db.table(tableName)
	if err != nil {
		return err
	}
	return t.AddRecord(NewRecord(recordData))
}

// ViewTable returns the structured form of one table.
func (db *Database) ViewTable(name string) (TableData, error) {
	t, err := db.table(name)
	if err != nil {
		return TableData{}, err
	}
	return t.ToDict(), nil
}

// ViewAllTables returns the structured form of every table keyed by name.
func (db *Database) ViewAllTables() map[string]TableData {
	out := make(map[string]TableData, len(db.tables))
	for name, t := range db.tables {
		out[name] = t.ToDict()
	}
	return out
}

// SaveToDisk writes every table to the database file, replacing it.
func (db *Database) SaveToDisk() error {
	if db.store == nil {
		return errors.New("database has no store configured")
	}
	return db.store.SaveDatabase(db.Name, db.ViewAllTables())
}

// LoadFromDisk replaces the in-memory tables with the contents of the
// database file. If any table fails to rebuild, the current tables are left
// as they were.
func (db *Database) LoadFromDisk() error {
	if db.store == nil {
		return errors.New("database has no store configured")
	}
	data, err := db.store.LoadDatabase(db.Name)
	if err != nil {
		return err
	}

	tables := make(map[string]*Table, len(data))
	for name, tableData := range data {
		t, err := FromDict(name, tableData)
		if err != nil {
			return fmt.Errorf("error loading table '%s': %w", name, err)
		}
		tables[name] = t
	}

	db.tables = tables
	return nil
}
