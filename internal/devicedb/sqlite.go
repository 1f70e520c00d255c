package devicedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const createCatalogSQL = `
CREATE TABLE IF NOT EXISTS modules (
    kind       INTEGER NOT NULL,
    name       TEXT NOT NULL,
    normalized TEXT NOT NULL,
    params     TEXT NOT NULL,
    PRIMARY KEY (kind, name)
);
CREATE INDEX IF NOT EXISTS modules_normalized_idx ON modules (kind, normalized);

CREATE TABLE IF NOT EXISTS inverters (
    name       TEXT NOT NULL PRIMARY KEY,
    normalized TEXT NOT NULL,
    params     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS inverters_normalized_idx ON inverters (normalized);
`

// SQLiteCatalog is a Lookup backed by a SQLite database built with Import.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens (and if needed creates) a device catalog database.
func OpenSQLite(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(createCatalogSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, dbPath: dbPath}, nil
}

// Close releases the database handle.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}

// Import copies every record of cat into the database in one transaction,
// replacing records with the same name.
func (s *SQLiteCatalog) Import(ctx context.Context, cat *Catalog) (modules, inverters int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, kind := range []DatabaseKind{Sandia, CEC} {
		for _, m := range cat.Modules(kind) {
			params, err := json.Marshal(m)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to encode module %q: %w", m.Name, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO modules (kind, name, normalized, params) VALUES (?, ?, ?, ?)`,
				int(kind), m.Name, NormalizeName(m.Name), string(params))
			if err != nil {
				return 0, 0, fmt.Errorf("failed to insert module %q: %w", m.Name, err)
			}
			modules++
		}
	}

	for _, inv := range cat.Inverters() {
		params, err := json.Marshal(inv)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to encode inverter %q: %w", inv.Name, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO inverters (name, normalized, params) VALUES (?, ?, ?)`,
			inv.Name, NormalizeName(inv.Name), string(params))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert inverter %q: %w", inv.Name, err)
		}
		inverters++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit catalog import: %w", err)
	}
	return modules, inverters, nil
}

// Module implements Lookup.
func (s *SQLiteCatalog) Module(kind DatabaseKind, name string) (ModuleParams, error) {
	var params string
	err := s.db.QueryRow(
		`SELECT params FROM modules WHERE kind = ? AND (name = ? OR normalized = ?)
		 ORDER BY name = ? DESC LIMIT 1`,
		int(kind), name, NormalizeName(name), name).Scan(&params)
	if errors.Is(err, sql.ErrNoRows) {
		return ModuleParams{}, &NotFoundError{Device: "module", Database: kind.String(), Name: name}
	}
	if err != nil {
		return ModuleParams{}, fmt.Errorf("failed to query module %q: %w", name, err)
	}

	var m ModuleParams
	if err := json.Unmarshal([]byte(params), &m); err != nil {
		return ModuleParams{}, fmt.Errorf("failed to decode module %q: %w", name, err)
	}
	return m, nil
}

// Inverter implements Lookup.
func (s *SQLiteCatalog) Inverter(name string) (InverterParams, error) {
	var params string
	err := s.db.QueryRow(
		`SELECT params FROM inverters WHERE name = ? OR normalized = ?
		 ORDER BY name = ? DESC LIMIT 1`,
		name, NormalizeName(name), name).Scan(&params)
	if errors.Is(err, sql.ErrNoRows) {
		return InverterParams{}, &NotFoundError{Device: "inverter", Database: "CEC", Name: name}
	}
	if err != nil {
		return InverterParams{}, fmt.Errorf("failed to query inverter %q: %w", name, err)
	}

	var inv InverterParams
	if err := json.Unmarshal([]byte(params), &inv); err != nil {
		return InverterParams{}, fmt.Errorf("failed to decode inverter %q: %w", name, err)
	}
	return inv, nil
}
