package datastore

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

const memoryPath = ":memory:"

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// sqliteDSN enables foreign keys so subject deletes cascade
func sqliteDSN(path string) string {
	if path == memoryPath {
		return memoryPath + "?_foreign_keys=on"
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// Open sets up the SQLite database connection and migrates the schema
func (store *SQLiteStore) Open() error {
	path := strings.TrimSpace(store.Settings.Output.SQLite.Path)
	if path == "" {
		return errors.Newf("SQLite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryFileIO).
					Context("operation", "create_db_dir").
					Context("path", dir).
					Build()
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return dbError(err, "open_sqlite", "path", path)
	}

	// Every pooled connection to :memory: would see its own empty database
	if path == memoryPath {
		sqlDB, err := db.DB()
		if err != nil {
			return dbError(err, "open_sqlite", "path", path)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store.DB = db
	if err := performAutoMigration(db, "SQLite"); err != nil {
		return err
	}

	GetLogger().Info("SQLite database opened", logger.String("path", path))
	return nil
}

// Close releases the SQLite connection
func (store *SQLiteStore) Close() error {
	return store.closeDB()
}
