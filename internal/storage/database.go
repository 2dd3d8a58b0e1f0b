package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

var (
	// ErrNotFound is returned when a write matched no student row.
	ErrNotFound = errors.New("student not found")
	// ErrNoGrades is returned by AverageGrade when the student has no grades.
	ErrNoGrades = errors.New("no grades recorded")
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection. The schema is not applied here;
// call EnsureSchema before using any record operation.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsnWithPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One handle for the lifetime of the process.
	db.SetMaxOpenConns(1)

	log.Debug().Str("path", path).Msg("Database connection established")

	return &DB{conn: db, path: path}, nil
}

// dsnWithPragmas appends connection pragmas to path, extending an existing
// query string such as "file:x.db?mode=ro" rather than starting a new one.
func dsnWithPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// EnsureSchema creates the students and grades tables if they don't exist.
// It is safe to call on every startup.
func (db *DB) EnsureSchema() error {
	return db.Transaction(func(tx *sql.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Transaction wraps a function in a database transaction.
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
