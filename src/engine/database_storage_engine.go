package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tabledb/src/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DatabaseFileExtension is appended to the database name to form its file name.
const DatabaseFileExtension = ".json"

// DatabaseStore persists the whole table set of a database as one artifact.
type DatabaseStore interface {
	SaveDatabase(databaseName string, tables map[string]TableData) error

	LoadDatabase(databaseName string) (map[string]TableData, error)
}

// DatabaseStorageEngine stores each database as <DataDirectory>/<name>.json
// in relaxed Extended JSON. Chars are written as {"$symbol": ...} so they
// read back as chars rather than strings.
type DatabaseStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger
}

// fileTable is the on-disk shape of one table.
type fileTable struct {
	Fields  [][]string `bson:"fields"`
	Records []bson.D   `bson:"records"`
}

func NewDatabaseStore(dataDir string, logger *zap.SugaredLogger) (*DatabaseStorageEngine, error) {
	store := &DatabaseStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(store.DataDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", store.DataDirectory, err)
	}

	return store, nil
}

// DatabaseFilePath returns the file backing the named database.
func (d *DatabaseStorageEngine) DatabaseFilePath(databaseName string) string {
	return filepath.Join(d.DataDirectory, databaseName+DatabaseFileExtension)
}

// SaveDatabase overwrites the database file with the given tables.
func (d *DatabaseStorageEngine) SaveDatabase(databaseName string, tables map[string]TableData) error {
	filePath := d.DatabaseFilePath(databaseName)

	doc, err := encodeTables(tables)
	if err != nil {
		return fmt.Errorf("error encoding database %s: %w", databaseName, err)
	}

	data, err := helpers.EncodeExtJSON(doc)
	if err != nil {
		return fmt.Errorf("error encoding database %s: %w", databaseName, err)
	}

	if err := helpers.WriteFileAtomic(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing database file %s: %w", filePath, err)
	}

	d.logger.Infow("Saved database", "database", databaseName, "tables", len(tables), "bytes", len(data))
	return nil
}

// LoadDatabase reads the database file back into table data. A missing file
// yields ErrFileNotFound.
func (d *DatabaseStorageEngine) LoadDatabase(databaseName string) (map[string]TableData, error) {
	filePath := d.DatabaseFilePath(databaseName)

	if !helpers.FileExists(filePath, d.logger) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	var raw map[string]fileTable
	err := helpers.WithMappedFile(filePath, func(data []byte) error {
		return helpers.DecodeExtJSON(data, &raw)
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, fmt.Errorf("error reading database file %s: %w", filePath, err)
	}

	tables, err := decodeTables(raw)
	if err != nil {
		return nil, fmt.Errorf("error decoding database file %s: %w", filePath, err)
	}

	d.logger.Infow("Loaded database file", "database", databaseName, "tables", len(tables))
	return tables, nil
}

func encodeTables(tables map[string]TableData) (bson.D, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := make(bson.D, 0, len(names))
	for _, name := range names {
		table := tables[name]
		ft := fileTable{
			Fields:  make([][]string, 0, len(table.Fields)),
			Records: make([]bson.D, 0, len(table.Records)),
		}
		for _, f := range table.Fields {
			ft.Fields = append(ft.Fields, []string{f.Name, string(f.Type)})
		}
		for _, record := range table.Records {
			encoded, err := encodeRecord(record)
			if err != nil {
				return nil, fmt.Errorf("table '%s': %w", name, err)
			}
			ft.Records = append(ft.Records, encoded)
		}
		doc = append(doc, bson.E{Key: name, Value: ft})
	}
	return doc, nil
}

func encodeRecord(record map[string]Value) (bson.D, error) {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		v, err := toBSONValue(record[k])
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", k, err)
		}
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return doc, nil
}

func decodeTables(raw map[string]fileTable) (map[string]TableData, error) {
	tables := make(map[string]TableData, len(raw))
	for name, ft := range raw {
		data := TableData{
			Fields:  make([]FieldDefinition, 0, len(ft.Fields)),
			Records: make([]map[string]Value, 0, len(ft.Records)),
		}
		for i, pair := range ft.Fields {
			if len(pair) != 2 {
				return nil, fmt.Errorf("table '%s': field %d must be a [name, type] pair", name, i)
			}
			data.Fields = append(data.Fields, FieldDefinition{Name: pair[0], Type: FieldType(pair[1])})
		}
		for i, doc := range ft.Records {
			record := make(map[string]Value, len(doc))
			for _, e := range doc {
				v, err := fromBSONValue(e.Value)
				if err != nil {
					return nil, fmt.Errorf("table '%s': record %d field '%s': %w", name, i, e.Key, err)
				}
				record[e.Key] = v
			}
			data.Records = append(data.Records, record)
		}
		tables[name] = data
	}
	return tables, nil
}

func toBSONValue(v Value) (interface{}, error) {
	switch v.Kind() {
	case KindInteger:
		i, _ := v.AsInt()
		return i, nil
	case KindReal:
		f, _ := v.AsReal()
		return f, nil
	case KindChar:
		s, _ := v.AsText()
		return primitive.Symbol(s), nil
	case KindString:
		s, _ := v.AsText()
		return s, nil
	case KindTime:
		t, _ := v.AsTime()
		return primitive.NewDateTimeFromTime(time.Date(1970, time.January, 1, t.Hour, t.Minute, t.Second, 0, time.UTC)), nil
	}
	return nil, fmt.Errorf("cannot persist invalid value")
}

func fromBSONValue(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float64:
		return Real(v), nil
	case string:
		return String(v), nil
	case primitive.Symbol:
		r := []rune(string(v))
		if len(r) != 1 {
			return Value{}, fmt.Errorf("stored char %q must be exactly one character", string(v))
		}
		return Char(r[0]), nil
	case primitive.DateTime:
		t := v.Time().UTC()
		return Time(TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}), nil
	}
	return Value{}, fmt.Errorf("unsupported stored value of type %T", raw)
}
