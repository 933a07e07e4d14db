// Package store persists the crop catalogue, users, the crops they follow
// and their notes and photos in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed repository. Writes are serialized.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
	now    func() time.Time
	newID  func() string
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps the pragma below in effect for every statement.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: path,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	users := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);`

	sembrios := `
	CREATE TABLE IF NOT EXISTS sembrios (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		nombre_key TEXT NOT NULL UNIQUE,
		categoria TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		detalles TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_sembrios_categoria ON sembrios(categoria);`

	owned := `
	CREATE TABLE IF NOT EXISTS user_sembrios (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sembrio_id TEXT NOT NULL REFERENCES sembrios(id) ON DELETE CASCADE,
		added_at TEXT NOT NULL,
		PRIMARY KEY (user_id, sembrio_id)
	);`

	notas := `
	CREATE TABLE IF NOT EXISTS notas (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		sembrio_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id, sembrio_id) REFERENCES user_sembrios(user_id, sembrio_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_notas_owner ON notas(user_id, sembrio_id);`

	imagenes := `
	CREATE TABLE IF NOT EXISTS imagenes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		sembrio_id TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id, sembrio_id) REFERENCES user_sembrios(user_id, sembrio_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_imagenes_owner ON imagenes(user_id, sembrio_id);`

	for _, stmt := range []string{users, sembrios, owned, notas, imagenes} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
