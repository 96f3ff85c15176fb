// Package sqlite provides the SQLite-backed label and image repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Pool manages the SQLite database handle.
type Pool struct {
	db *sql.DB
}

// NewPool opens the SQLite database file, creating parent directories as
// needed, and verifies the connection.
func NewPool(path string) (*Pool, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; keep the pool at one connection so
	// writes never contend at the driver level.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB returns the underlying sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the database handle.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Migrate creates the schema if it does not exist yet.
func (p *Pool) Migrate(ctx context.Context) error {
	createLabels := `
		CREATE TABLE IF NOT EXISTS labels (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)
	`
	if _, err := p.db.ExecContext(ctx, createLabels); err != nil {
		return fmt.Errorf("failed to create labels table: %w", err)
	}

	createImages := `
		CREATE TABLE IF NOT EXISTS images (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			path     TEXT NOT NULL,
			label_id INTEGER NOT NULL REFERENCES labels(id)
		)
	`
	if _, err := p.db.ExecContext(ctx, createImages); err != nil {
		return fmt.Errorf("failed to create images table: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS images_label_id_idx ON images(label_id)
	`); err != nil {
		return fmt.Errorf("failed to create images label index: %w", err)
	}

	return nil
}

// Initialize opens the database and runs migrations.
func Initialize(path string) (*Pool, error) {
	pool, err := NewPool(path)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, nil
}
