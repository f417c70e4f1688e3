package engine

import (
	"tabledb/src/helpers"
)

// DatabaseFactory creates new Database instances
type DatabaseFactory interface {
	NewDatabase(name string) (*Database, error)
}

// DatabaseFactoryImpl binds every database it creates to one store.
type DatabaseFactoryImpl struct {
	store DatabaseStore
}

// NewDatabaseFactory creates a new instance of DatabaseFactory
func NewDatabaseFactory(store DatabaseStore) DatabaseFactory {
	return &DatabaseFactoryImpl{store: store}
}

// NewDatabase creates an empty Database persisted through the factory's store.
func (f *DatabaseFactoryImpl) NewDatabase(name string) (*Database, error) {
	db, err := NewDatabase(name, f.store)
	if err != nil {
		return nil, err
	}
	db.DatabaseID = helpers.GenerateUUID()
	return db, nil
}
