package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/migrator"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/utils/logger/sl"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes mapped onto domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Repository provides access to the database.
type Repository struct {
	DB     *sqlx.DB
	log    *slog.Logger
	schema string
}

// New connects to the database and runs migrations. It panics on failure.
func New(logger *slog.Logger, cfg *config.Config) *Repository {
	op := "repositories.New()"
	log := logger.With(
		slog.String("op", op))

	repo, err := Open(context.Background(), logger, cfg.DBConfig)
	if err != nil {
		log.Error("error opening database", sl.Err(err))
		panic("error opening database")
	}

	if err := repo.Migrate(context.Background()); err != nil {
		log.Error("error running database migrations", sl.Err(err))
		panic("error running database migrations")
	}

	return repo
}

// Open connects and pings the database without migrating it.
func Open(ctx context.Context, logger *slog.Logger, dbCfg config.DBConfig) (*Repository, error) {
	op := "repositories.Open"

	conn, err := sqlx.ConnectContext(ctx, "postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if dbCfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(dbCfg.MaxOpenConns)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	logger.Debug("sqlx connected to database", slog.String("op", op))

	return &Repository{
		DB:     conn,
		log:    logger.With(slog.String("component", "repository")),
		schema: dbCfg.Schema,
	}, nil
}

// Migrate applies pending migrations.
func (r *Repository) Migrate(ctx context.Context) error {
	return migrator.NewMigrator(r.DB, r.log, r.schema).Run(ctx)
}

// MigrationStatus lists known migrations and when they were applied.
func (r *Repository) MigrationStatus(ctx context.Context) ([]migrator.Migration, error) {
	return migrator.NewMigrator(r.DB, r.log, r.schema).Status(ctx)
}

// Ping checks the connection; used by the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// Shutdown closes the database connection.
func (r *Repository) Shutdown(ctx context.Context) error {
	op := "Repository.Shutdown"
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit %s: %w", op, ctx.Err())
	default:
	}
	if err := r.DB.Close(); err != nil {
		return fmt.Errorf("error exit %s: %w", op, err)
	}
	return nil
}

// mapError translates driver errors into domain errors, keeping the cause.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}
