package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql connection pool so repositories depend on this
// package instead of database/sql directly.
type DB struct {
	*sql.DB
}

// NewConnection opens the sqlite database at path, creating the file if
// needed. WAL mode keeps concurrent reads cheap while imports write.
func NewConnection(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite serializes writers; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	return &DB{DB: db}, nil
}
