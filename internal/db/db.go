package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Bucket names used by go-sheets.
const (
	DocumentsBucket = "documents"
	SettingsBucket  = "settings"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection; writers are serialized.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (bucket, key)
	);
	CREATE INDEX IF NOT EXISTS idx_kv_bucket ON kv(bucket);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Bucket returns a view of the keys stored under name.
func (db *DB) Bucket(name string) *Bucket {
	return &Bucket{db: db, name: name}
}

// Documents is shorthand for Bucket(DocumentsBucket).
func (db *DB) Documents() *Bucket {
	return db.Bucket(DocumentsBucket)
}

// Settings is shorthand for Bucket(SettingsBucket).
func (db *DB) Settings() *Bucket {
	return db.Bucket(SettingsBucket)
}
