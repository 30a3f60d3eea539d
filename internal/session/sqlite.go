package session

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLPersister keeps the token in a key/value table of a local sqlite file.
type SQLPersister struct {
	db *sqlx.DB
}

// OpenSQL opens (creating if needed) the sqlite store at path and brings its
// schema up to date. Use ":memory:" for a throwaway store.
func OpenSQL(path string) (*SQLPersister, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLPersister{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	// m.Close would close db as well, so only the source is released.
	defer src.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *SQLPersister) Read() (string, bool, error) {
	var v string
	err := s.db.Get(&v, `SELECT value FROM local_storage WHERE key = ?`, StorageKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLPersister) Write(token string) error {
	_, err := s.db.Exec(`
INSERT INTO local_storage(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		StorageKey, token)
	return err
}

func (s *SQLPersister) Clear() error {
	_, err := s.db.Exec(`DELETE FROM local_storage WHERE key = ?`, StorageKey)
	return err
}

func (s *SQLPersister) Close() error { return s.db.Close() }

// OpenPersister picks the durable medium named by kind: sqlite, file or memory.
func OpenPersister(kind, path string) (Persister, error) {
	switch kind {
	case "memory":
		return &MemoryPersister{}, nil
	case "file":
		return NewFilePersister(path), nil
	case "sqlite", "":
		return OpenSQL(path)
	}
	return nil, fmt.Errorf("unknown session store %q", kind)
}
