package migrator

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL migrations inside one schema.
type Migrator struct {
	db     *sqlx.DB
	log    *slog.Logger
	schema string
	files  fs.FS
}

// Migration is a migration file and, if applied, when.
type Migration struct {
	Version   string     `db:"version"`
	AppliedAt *time.Time `db:"applied_at"`
}

// NewMigrator creates a new migrator instance.
func NewMigrator(db *sqlx.DB, log *slog.Logger, schema string) *Migrator {
	return &Migrator{
		db:     db,
		log:    log.With(slog.String("component", "migrator")),
		schema: schema,
		files:  migrationsFS,
	}
}

// Run executes all pending migrations in version order.
func (m *Migrator) Run(ctx context.Context) error {
	op := "migrator.Run"
	m.log.Info("starting database migrations", slog.String("schema", m.schema))

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("%s: failed to create migrations table: %w", op, err)
	}

	versions, err := Versions(m.files)
	if err != nil {
		return fmt.Errorf("%s: failed to get migration files: %w", op, err)
	}

	applied, err := m.appliedSet(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, version := range versions {
		if applied[version] {
			m.log.Debug("migration already applied", slog.String("version", version))
			continue
		}
		if err := m.apply(ctx, version); err != nil {
			return fmt.Errorf("%s: failed to run migration %s: %w", op, version, err)
		}
	}

	m.log.Info("database migrations completed successfully")
	return nil
}

// Status lists every known migration with its applied time, oldest first.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	op := "migrator.Status"

	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	versions, err := Versions(m.files)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []Migration
	query := fmt.Sprintf(`SELECT version, applied_at FROM %s.schema_migrations`, m.schema)
	if err := m.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mergeStatus(versions, rows), nil
}

func mergeStatus(versions []string, applied []Migration) []Migration {
	at := make(map[string]*time.Time, len(applied))
	for _, a := range applied {
		at[a.Version] = a.AppliedAt
	}
	out := make([]Migration, 0, len(versions))
	for _, v := range versions {
		out = append(out, Migration{Version: v, AppliedAt: at[v]})
	}
	return out
}

// Versions returns the migration versions found under migrations/, sorted.
func Versions(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, "migrations")
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(entry.Name(), ".sql"))
		}
	}

	sort.Strings(versions)
	return versions, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	schemaQuery := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, m.schema)
	if _, err := m.db.ExecContext(ctx, schemaQuery); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, m.schema)
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) appliedSet(ctx context.Context) (map[string]bool, error) {
	var versions []string
	query := fmt.Sprintf(`SELECT version FROM %s.schema_migrations`, m.schema)
	if err := m.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("applied migrations: %w", err)
	}
	set := make(map[string]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set, nil
}

func (m *Migrator) apply(ctx context.Context, version string) (err error) {
	m.log.Info("applying migration", slog.String("version", version))

	content, err := fs.ReadFile(m.files, "migrations/"+version+".sql")
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s, public", m.schema)); err != nil {
		return fmt.Errorf("failed to set search_path: %w", err)
	}

	if _, err = tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	insertQuery := fmt.Sprintf(
		`INSERT INTO %s.schema_migrations (version) VALUES ($1)`, m.schema)
	if _, err = tx.ExecContext(ctx, insertQuery, version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.log.Info("migration applied successfully", slog.String("version", version))
	return nil
}
