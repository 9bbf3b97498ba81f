// Package store persists dependency-graph snapshots to SQLite so they can be
// queried after the analysis has finished.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for graph snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS snapshots (
  id              INTEGER PRIMARY KEY,
  root            TEXT NOT NULL,
  fingerprint     TEXT NOT NULL,
  digest          TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  path            TEXT NOT NULL,
  language        TEXT NOT NULL,
  family          TEXT NOT NULL,
  line_count      INTEGER,
  UNIQUE (snapshot_id, path)
);

CREATE TABLE IF NOT EXISTS file_deps (
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  from_path       TEXT NOT NULL,
  to_path         TEXT NOT NULL,
  PRIMARY KEY (snapshot_id, from_path, to_path)
);

CREATE TABLE IF NOT EXISTS modules (
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  file_count      INTEGER NOT NULL,
  PRIMARY KEY (snapshot_id, name)
);

CREATE TABLE IF NOT EXISTS module_files (
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  module          TEXT NOT NULL,
  path            TEXT NOT NULL,
  PRIMARY KEY (snapshot_id, path)
);

CREATE TABLE IF NOT EXISTS module_deps (
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  from_module     TEXT NOT NULL,
  to_module       TEXT NOT NULL,
  PRIMARY KEY (snapshot_id, from_module, to_module)
);

CREATE TABLE IF NOT EXISTS cycles (
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  cycle_index     INTEGER NOT NULL,
  ordinal         INTEGER NOT NULL,
  module          TEXT NOT NULL,
  PRIMARY KEY (snapshot_id, cycle_index, ordinal)
);

CREATE TABLE IF NOT EXISTS blocks (
  id              INTEGER PRIMARY KEY,
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  path            TEXT NOT NULL,
  name            TEXT,
  start_line      INTEGER NOT NULL,
  end_line        INTEGER
);

CREATE TABLE IF NOT EXISTS warnings (
  id              INTEGER PRIMARY KEY,
  snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
  kind            TEXT NOT NULL,
  path            TEXT,
  line            INTEGER,
  message         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint);
CREATE INDEX IF NOT EXISTS idx_file_deps_to ON file_deps(snapshot_id, to_path);
CREATE INDEX IF NOT EXISTS idx_module_deps_to ON module_deps(snapshot_id, to_module);
CREATE INDEX IF NOT EXISTS idx_module_files_module ON module_files(snapshot_id, module);
CREATE INDEX IF NOT EXISTS idx_blocks_path ON blocks(snapshot_id, path);
`
