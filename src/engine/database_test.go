package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDatabase(t *testing.T, name string) (*Database, *DatabaseStorageEngine) {
	t.Helper()
	store, err := NewDatabaseStore(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	db, err := NewDatabase(name, store)
	require.NoError(t, err)
	return db, store
}

func TestNewDatabase_Name(t *testing.T) {
	for _, name := range []string{"shop", "Shop_2", "a-b"} {
		_, err := NewDatabase(name, nil)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"", "1shop", "../etc", "a b", "a/b"} {
		_, err := NewDatabase(name, nil)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDatabase_CreateTable(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")

	require.NoError(t, db.CreateTable("people"))
	require.NoError(t, db.AddFieldToTable("people", Field{Name: "id", Type: FieldTypeInteger}))

	err := db.CreateTable("people")
	require.ErrorIs(t, err, ErrTableExists)

	// the failed call left the existing table alone
	view, err := db.ViewTable("people")
	require.NoError(t, err)
	assert.Equal(t, []FieldDefinition{{Name: "id", Type: FieldTypeInteger}}, view.Fields)
	assert.Equal(t, []string{"people"}, db.TableNames())

	assert.ErrorIs(t, db.CreateTable(""), ErrInvalidName)
}

func TestDatabase_RemoveTable(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("people"))

	require.NoError(t, db.RemoveTable("people"))
	assert.Empty(t, db.TableNames())
	assert.ErrorIs(t, db.RemoveTable("people"), ErrTableNotFound)
}

func TestDatabase_OperationsOnMissingTable(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	field := Field{Name: "id", Type: FieldTypeInteger}

	assert.ErrorIs(t, db.AddFieldToTable("nope", field), ErrTableNotFound)
	assert.ErrorIs(t, db.EditFieldInTable("nope", "id", field), ErrTableNotFound)
	assert.ErrorIs(t, db.RemoveFieldFromTable("nope", "id"), ErrTableNotFound)
	assert.ErrorIs(t, db.AddRecordToTable("nope", map[string]Value{}), ErrTableNotFound)
	_, err := db.ViewTable("nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Empty(t, db.ViewAllTables())
}

func TestDatabase_FieldErrorsPropagate(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("people"))

	assert.ErrorIs(t, db.EditFieldInTable("people", "id", Field{Name: "id", Type: FieldTypeReal}), ErrFieldNotFound)
	assert.ErrorIs(t, db.RemoveFieldFromTable("people", "id"), ErrFieldNotFound)
	assert.ErrorIs(t, db.AddRecordToTable("people", map[string]Value{"id": Int(1)}), ErrUnknownField)
}

func TestDatabase_RemoveFieldThenView(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("people"))
	require.NoError(t, db.AddFieldToTable("people", Field{Name: "id", Type: FieldTypeInteger}))
	require.NoError(t, db.AddFieldToTable("people", Field{Name: "name", Type: FieldTypeString}))
	require.NoError(t, db.AddRecordToTable("people", map[string]Value{"id": Int(1), "name": String("A")}))

	require.NoError(t, db.RemoveFieldFromTable("people", "name"))

	view, err := db.ViewTable("people")
	require.NoError(t, err)
	assert.Equal(t, []FieldDefinition{{Name: "id", Type: FieldTypeInteger}}, view.Fields)
	require.Len(t, view.Records, 1)
	assert.True(t, view.Records[0]["name"].Equal(String("A")))
}

func TestDatabase_ViewAllTables(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("a"))
	require.NoError(t, db.CreateTable("b"))
	require.NoError(t, db.AddFieldToTable("b", Field{Name: "x", Type: FieldTypeString}))

	all := db.ViewAllTables()
	require.Len(t, all, 2)
	assert.Empty(t, all["a"].Fields)
	assert.Equal(t, []FieldDefinition{{Name: "x", Type: FieldTypeString}}, all["b"].Fields)
}

func populate(t *testing.T, db *Database) {
	t.Helper()
	require.NoError(t, db.CreateTable("people"))
	for _, f := range []Field{
		{Name: "id", Type: FieldTypeInteger},
		{Name: "name", Type: FieldTypeString},
		{Name: "initial", Type: FieldTypeChar},
		{Name: "height", Type: FieldTypeReal},
		{Name: "wake", Type: FieldTypeTime},
	} {
		require.NoError(t, db.AddFieldToTable("people", f))
	}
	require.NoError(t, db.AddRecordToTable("people", map[string]Value{
		"id": Int(1), "name": String("Ann"), "initial": Char('A'), "height": Real(1.0), "wake": Time(TimeOfDay{Hour: 6, Minute: 45}),
	}))
	require.NoError(t, db.AddRecordToTable("people", map[string]Value{"id": Int(2), "height": Real(-2.5e10)}))
	require.NoError(t, db.CreateTable("empty"))
}

func TestDatabase_SaveAndLoad(t *testing.T) {
	db, store := newTestDatabase(t, "shop")
	populate(t, db)

	require.NoError(t, db.SaveToDisk())
	_, err := os.Stat(filepath.Join(store.DataDirectory, "shop.json"))
	require.NoError(t, err)

	loaded, err := NewDatabase("shop", store)
	require.NoError(t, err)
	require.NoError(t, loaded.CreateTable("scratch"))
	require.NoError(t, loaded.LoadFromDisk())

	// load replaces, it does not merge
	assert.Equal(t, []string{"empty", "people"}, loaded.TableNames())

	want := db.ViewAllTables()
	got := loaded.ViewAllTables()
	require.Equal(t, want["people"].Fields, got["people"].Fields)
	require.Len(t, got["people"].Records, 2)
	for i := range want["people"].Records {
		for k, v := range want["people"].Records[i] {
			assert.Equal(t, v.Kind(), got["people"].Records[i][k].Kind(), "record %d field %s", i, k)
		}
	}
	assert.Equal(t, want, got)
}

func TestDatabase_SaveAndLoadCharKeepsKind(t *testing.T) {
	db, store := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("codes"))
	require.NoError(t, db.AddFieldToTable("codes", Field{Name: "c", Type: FieldTypeChar}))
	require.NoError(t, db.AddFieldToTable("codes", Field{Name: "s", Type: FieldTypeString}))
	require.NoError(t, db.AddRecordToTable("codes", map[string]Value{"c": Char('é'), "s": Char('x')}))
	require.NoError(t, db.AddRecordToTable("codes", map[string]Value{"c": String("y"), "s": String("z")}))
	require.NoError(t, db.SaveToDisk())

	loaded, err := NewDatabase("shop", store)
	require.NoError(t, err)
	require.NoError(t, loaded.LoadFromDisk())

	view, err := loaded.ViewTable("codes")
	require.NoError(t, err)
	assert.Equal(t, []map[string]Value{
		{"c": Char('é'), "s": Char('x')},
		{"c": String("y"), "s": String("z")},
	}, view.Records)
}

func TestDatabase_DollarNamesRejected(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")

	for _, name := range []string{"$numberLong", "$date", "$oid", "$"} {
		assert.ErrorIs(t, db.CreateTable(name), ErrInvalidName, name)
	}

	require.NoError(t, db.CreateTable("p"))
	for _, name := range []string{"$numberLong", "$date", "$oid", "a\x00b"} {
		assert.ErrorIs(t, db.AddFieldToTable("p", Field{Name: name, Type: FieldTypeString}), ErrInvalidName, name)
		_, err := NewField(name, FieldTypeString)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	require.NoError(t, db.AddFieldToTable("p", Field{Name: "amount", Type: FieldTypeString}))
	assert.ErrorIs(t, db.EditFieldInTable("p", "amount", Field{Name: "$date", Type: FieldTypeString}), ErrInvalidName)
	assert.Equal(t, []string{"p"}, db.TableNames())
}

func TestDatabase_SaveAndLoadDollarInsideNames(t *testing.T) {
	db, store := newTestDatabase(t, "shop")
	require.NoError(t, db.CreateTable("price$"))
	require.NoError(t, db.AddFieldToTable("price$", Field{Name: "usd$numberLong", Type: FieldTypeString}))
	require.NoError(t, db.AddRecordToTable("price$", map[string]Value{"usd$numberLong": String("5")}))
	require.NoError(t, db.SaveToDisk())

	loaded, err := NewDatabase("shop", store)
	require.NoError(t, err)
	require.NoError(t, loaded.LoadFromDisk())
	assert.Equal(t, db.ViewAllTables(), loaded.ViewAllTables())
}

func TestDatabase_SaveOverwrites(t *testing.T) {
	db, store := newTestDatabase(t, "shop")
	populate(t, db)
	require.NoError(t, db.SaveToDisk())

	require.NoError(t, db.RemoveTable("people"))
	require.NoError(t, db.SaveToDisk())

	loaded, err := NewDatabase("shop", store)
	require.NoError(t, err)
	require.NoError(t, loaded.LoadFromDisk())
	assert.Equal(t, []string{"empty"}, loaded.TableNames())
}

func TestDatabase_LoadMissingFile(t *testing.T) {
	db, _ := newTestDatabase(t, "shop")
	assert.ErrorIs(t, db.LoadFromDisk(), ErrFileNotFound)
}

func TestDatabase_LoadFailureKeepsState(t *testing.T) {
	db, store := newTestDatabase(t, "shop")
	populate(t, db)

	// stale data left by a removed field no longer validates on reload
	require.NoError(t, db.RemoveFieldFromTable("people", "name"))
	require.NoError(t, db.SaveToDisk())

	other, err := NewDatabase("shop", store)
	require.NoError(t, err)
	require.NoError(t, other.CreateTable("keep"))

	err = other.LoadFromDisk()
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "people")
	assert.Equal(t, []string{"keep"}, other.TableNames())
}

func TestDatabase_NoStore(t *testing.T) {
	db, err := NewDatabase("shop", nil)
	require.NoError(t, err)
	assert.Error(t, db.SaveToDisk())
	assert.Error(t, db.LoadFromDisk())
}

func TestDatabaseFactory(t *testing.T) {
	store, err := NewDatabaseStore(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	factory := NewDatabaseFactory(store)

	a, err := factory.NewDatabase("a")
	require.NoError(t, err)
	b, err := factory.NewDatabase("b")
	require.NoError(t, err)
	assert.NotEmpty(t, a.DatabaseID)
	assert.NotEqual(t, a.DatabaseID, b.DatabaseID)

	_, err = factory.NewDatabase("not valid")
	assert.ErrorIs(t, err, ErrInvalidName)
}
