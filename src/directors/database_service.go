package directors

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tabledb/src/engine"
	"tabledb/src/metrics"

	"go.uber.org/zap"
)

// ErrNoDatabase is returned by table operations before any database exists.
var ErrNoDatabase = errors.New("create a database first")

// DatabaseService owns the active Database handle and serialises every
// operation on it with one lock.
type DatabaseService struct {
	mu      sync.Mutex
	factory engine.DatabaseFactory
	db      *engine.Database
	logger  *zap.SugaredLogger
	metrics *metrics.Recorder
}

// NewDatabaseService creates a service with no active database. recorder may
// be nil.
func NewDatabaseService(factory engine.DatabaseFactory, logger *zap.SugaredLogger, recorder *metrics.Recorder) *DatabaseService {
	return &DatabaseService{
		factory: factory,
		logger:  logger,
		metrics: recorder,
	}
}

func (s *DatabaseService) observe(operation string, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	s.metrics.Observe(operation, status, time.Since(start))
	if s.db != nil {
		s.metrics.SetTables(len(s.db.TableNames()))
	}
}

// withDatabase runs fn against the active database under the service lock.
func (s *DatabaseService) withDatabase(operation string, fn func(db *engine.Database) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { s.observe(operation, start, err) }()

	if s.db == nil {
		return ErrNoDatabase
	}

	err = fn(s.db)
	if err != nil {
		s.logger.Debugw("Operation failed", "operation", operation, "database", s.db.Name, "kind", ErrorKind(err), "error", err)
		return err
	}
	s.logger.Debugw("Operation completed", "operation", operation, "database", s.db.Name, "elapsed", time.Since(start))
	return nil
}

// CreateDatabase makes a new empty database the active one, replacing any
// previous handle without saving it.
func (s *DatabaseService) CreateDatabase(name string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { s.observe("create_database", start, err) }()

	db, err := s.factory.NewDatabase(name)
	if err != nil {
		return err
	}
	if s.db != nil {
		s.logger.Infow("Replacing active database", "previous", s.db.Name, "database", name)
	}
	s.db = db

	s.logger.Infow("Created database", "database", db.Name, "databaseID", db.DatabaseID)
	return nil
}

// OpenDatabase loads a saved database and makes it the active one. On
// failure the previous handle stays active.
func (s *DatabaseService) OpenDatabase(name string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { s.observe("open_database", start, err) }()

	db, err := s.factory.NewDatabase(name)
	if err != nil {
		return err
	}
	if err := db.LoadFromDisk(); err != nil {
		return err
	}
	s.db = db

	s.logger.Infow("Opened database", "database", db.Name, "databaseID", db.DatabaseID, "tables", len(db.TableNames()))
	return nil
}

// ActiveDatabase returns the name of the active database, if any.
func (s *DatabaseService) ActiveDatabase() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return "", false
	}
	return s.db.Name, true
}

func (s *DatabaseService) CreateTable(name string) error {
	return s.withDatabase("create_table", func(db *engine.Database) error {
		return db.CreateTable(name)
	})
}

func (s *DatabaseService) RemoveTable(name string) error {
	return s.withDatabase("remove_table", func(db *engine.Database) error {
		return db.RemoveTable(name)
	})
}

func (s *DatabaseService) ListTables() ([]string, error) {
	var names []string
	err := s.withDatabase("list_tables", func(db *engine.Database) error {
		names = db.TableNames()
		return nil
	})
	return names, err
}

func (s *DatabaseService) AddField(tableName string, field engine.Field) error {
	return s.withDatabase("add_field", func(db *engine.Database) error {
		return db.AddFieldToTable(tableName, field)
	})
}

func (s *DatabaseService) EditField(tableName, oldFieldName string, field engine.Field) error {
	return s.withDatabase("edit_field", func(db *engine.Database) error {
		return db.EditFieldInTable(tableName, oldFieldName, field)
	})
}

func (s *DatabaseService) RemoveField(tableName, fieldName string) error {
	return s.withDatabase("remove_field", func(db *engine.Database) error {
		return db.RemoveFieldFromTable(tableName, fieldName)
	})
}

func (s *DatabaseService) AddRecord(tableName string, data map[string]engine.Value) error {
	return s.withDatabase("add_record", func(db *engine.Database) error {
		return db.AddRecordToTable(tableName, data)
	})
}

func (s *DatabaseService) ViewTable(name string) (engine.TableData, error) {
	var view engine.TableData
	err := s.withDatabase("view_table", func(db *engine.Database) error {
		var err error
		view, err = db.ViewTable(name)
		return err
	})
	return view, err
}

func (s *DatabaseService) ViewAllTables() (map[string]engine.TableData, error) {
	var views map[string]engine.TableData
	err := s.withDatabase("view_all_tables", func(db *engine.Database) error {
		views = db.ViewAllTables()
		return nil
	})
	return views, err
}

func (s *DatabaseService) Save() error {
	return s.withDatabase("save", func(db *engine.Database) error {
		if err := db.SaveToDisk(); err != nil {
			return fmt.Errorf("error saving database '%s': %w", db.Name, err)
		}
		return nil
	})
}

func (s *DatabaseService) Load() error {
	return s.withDatabase("load", func(db *engine.Database) error {
		return db.LoadFromDisk()
	})
}

func (s *DatabaseService) Join(table1, table2, fieldName string) ([]map[string]engine.Value, error) {
	var joined []map[string]engine.Value
	err := s.withDatabase("join", func(db *engine.Database) error {
		var err error
		joined, err = db.JoinTables(table1, table2, fieldName)
		return err
	})
	return joined, err
}
