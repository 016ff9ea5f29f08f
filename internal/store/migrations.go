package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS basins (
    basin_id TEXT PRIMARY KEY,
    name TEXT,
    latitude REAL,
    longitude REAL,
    active BOOLEAN DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS basin_months (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    basin_id TEXT NOT NULL,
    date DATE NOT NULL,
    twsa REAL,
    sm REAL,
    rain REAL,
    rain_def REAL,
    twsa_z REAL,
    sm_z REAL,
    rain_z REAL,
    rain_def_z REAL,
    asi REAL,
    class TEXT NOT NULL DEFAULT 'no-data',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(basin_id, date)
);

CREATE TABLE IF NOT EXISTS source_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    variable TEXT NOT NULL,
    basin_id TEXT NOT NULL,
    date DATE NOT NULL,
    value REAL NOT NULL,
    UNIQUE(source, basin_id, date)
);

CREATE TABLE IF NOT EXISTS ingest_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    source TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    http_status INTEGER,
    response_size_bytes INTEGER,
    records_parsed INTEGER,
    records_stored INTEGER,
    parse_errors INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ingest_run_id INTEGER REFERENCES ingest_runs(id),
    fetched_at DATETIME NOT NULL,
    source TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT NOT NULL,
    schema_version INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_months_basin_date ON basin_months(basin_id, date);
CREATE INDEX IF NOT EXISTS idx_months_date ON basin_months(date);
CREATE INDEX IF NOT EXISTS idx_samples_basin_date ON source_samples(basin_id, date);
CREATE INDEX IF NOT EXISTS idx_payloads_hash ON raw_payloads(payload_hash);
`,
	},
	{
		Version:     2,
		Description: "Index for class aggregation per month",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_months_date_class ON basin_months(date, class);
`,
	},
}

// Migrate applies any pending migrations in order.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err = s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		log.Printf("store: applied migration %d: %s", m.Version, m.Description)
	}
	return nil
}
