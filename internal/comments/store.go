package comments

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the durable local side-store contract. Read's second return
// distinguishes "no thread yet" from a real failure.
type Store interface {
	Read(key string) (data []byte, ok bool, err error)
	Write(key string, data []byte) error
}

const schema = `
CREATE TABLE IF NOT EXISTS comment_threads (
	parent_id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists one JSON-encoded thread per owning entity id.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultStorePath returns the default side-store path (~/.boardctl/comments.db).
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".boardctl", "comments.db"), nil
}

// OpenStore opens or creates the side-store at the given path.
func OpenStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open side-store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Read returns the stored thread blob for key, if any.
func (s *SQLiteStore) Read(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM comment_threads WHERE parent_id = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read thread: %w", err)
	}
	return data, true, nil
}

// Write upserts the thread blob for key.
func (s *SQLiteStore) Write(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO comment_threads (parent_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(parent_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write thread: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
