package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type SQLiteDocumentStore struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewSQLiteDocumentStore(path string, logger *zerolog.Logger) (*SQLiteDocumentStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("document database initialized")
	}
	return &SQLiteDocumentStore{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            key TEXT PRIMARY KEY,
            value BLOB NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *SQLiteDocumentStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return doc, true, nil
}

func (s *SQLiteDocumentStore) Save(ctx context.Context, key string, doc []byte) error {
	query := `INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, doc, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// PruneBefore deletes documents under prefix whose last save is older than
// cutoff.
func (s *SQLiteDocumentStore) PruneBefore(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	// substr instead of LIKE: '_' in key prefixes is a LIKE wildcard
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE substr(key, 1, ?) = ? AND updated_at < ?`,
		len(prefix), prefix, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents %s*: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned documents: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info().Int64("removed", n).Str("prefix", prefix).Msg("pruned stale documents")
	}
	return int(n), nil
}

func (s *SQLiteDocumentStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}
