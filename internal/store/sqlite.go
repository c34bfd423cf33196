package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

var sqliteDialect = dialect{
	goose:           goose.DialectSQLite3,
	uniqueViolation: sqliteUniqueViolation,
}

// OpenSQLite opens (creating if needed) the SQLite database at dbPath
func OpenSQLite(dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps writes serialized and :memory: databases shared.
	db.SetMaxOpenConns(1)

	return newSQLStore(db, sqliteDialect), nil
}

func sqliteUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}
