package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store loads and saves a whole library
type Store interface {
	Load(ctx context.Context) (Library, error)
	Save(ctx context.Context, lib Library) error
	Close() error
}

// SQLiteStore persists the library in a key/value table of a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and if needed creates) the library database at path.
// The special path ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create library table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads the library; a missing entry yields an empty library
func (s *SQLiteStore) Load(ctx context.Context) (Library, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, StorageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Library{}, nil
	}
	if err != nil {
		return Library{}, fmt.Errorf("failed to read library: %w", err)
	}
	return Unmarshal([]byte(value))
}

// Save overwrites the stored library wholesale
func (s *SQLiteStore) Save(ctx context.Context, lib Library) error {
	data, err := lib.Marshal()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		StorageKey, string(data))
	if err != nil {
		return fmt.Errorf("failed to write library: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore keeps the serialized library in memory. SaveErr, when set, is
// returned by Save without storing anything.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	SaveErr error
}

// NewMemoryStore creates a memory store seeded with lib
func NewMemoryStore(lib Library) *MemoryStore {
	data, _ := lib.Marshal()
	return &MemoryStore{data: data}
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context) (Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Unmarshal(m.data)
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, lib Library) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := lib.Marshal()
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

// Saves returns how many successful writes happened
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}
