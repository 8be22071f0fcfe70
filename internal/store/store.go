// Package store archives simulation runs and their measurements in a
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound reports a missing run or measurement.
var ErrNotFound = errors.New("store: not found")

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("store: load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: sqlite migrate driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", driver)
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version and whether the
// database is in a dirty migration state.
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Run is an archived simulation run.
type Run struct {
	ID        string
	Name      string
	Config    string
	CreatedAt time.Time
}

// CreateRun records a new run and returns it with a fresh ID.
func (s *Store) CreateRun(ctx context.Context, name, config string) (*Run, error) {
	r := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, name, config, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Name, r.Config, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create run: %w", err)
	}
	monitoring.Logf("store: created run %s (%s)", r.ID, r.Name)
	return r, nil
}

// Run fetches a single run by ID.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, name, config, created_at FROM runs WHERE run_id = ?`, id)
	var r Run
	if err := row.Scan(&r.ID, &r.Name, &r.Config, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: run %s: %w", id, err)
	}
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, name, config, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Config, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its measurements.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM measurements WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete measurements of %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: run %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveMeasurement stores a measurement under the run, replacing any
// previous one with the same name.
func (s *Store) SaveMeasurement(ctx context.Context, runID, name string, m *measure.Measurement) error {
	payload, err := m.Encode()
	if err != nil {
		return fmt.Errorf("store: encode measurement %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO measurements (run_id, name, payload) VALUES (?, ?, ?)`,
		runID, name, payload)
	if err != nil {
		return fmt.Errorf("store: save measurement %s: %w", name, err)
	}
	return nil
}

// Measurement fetches a named measurement of a run.
func (s *Store) Measurement(ctx context.Context, runID, name string) (*measure.Measurement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM measurements WHERE run_id = ? AND name = ?`, runID, name)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: measurement %s/%s: %w", runID, name, ErrNotFound)
		}
		return nil, fmt.Errorf("store: measurement %s/%s: %w", runID, name, err)
	}
	m, err := measure.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("store: decode measurement %s/%s: %w", runID, name, err)
	}
	return m, nil
}

// ListMeasurements returns the measurement names stored under a run.
func (s *Store) ListMeasurements(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM measurements WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list measurements of %s: %w", runID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan measurement name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
