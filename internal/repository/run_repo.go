package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"commentgraph/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// RunRepository stores pipeline runs and the entities they flagged.
type RunRepository interface {
	SaveRun(run *models.Run, flagged []models.FlaggedEntity) error
	GetRun(id string) (*models.Run, error)
	ListRuns(limit int) ([]*models.Run, error)
	GetFlagged(runID string) ([]models.FlaggedEntity, error)
	Close() error
}

type runRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRunRepository opens the database, applies migrations and returns a
// repository. driver is DriverSQLite (dsn is a file path) or DriverPostgres
// (dsn is a connection URL).
func NewRunRepository(driver, dsn string, logger *zap.Logger) (RunRepository, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrateDB(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Run repository initialized", zap.String("driver", driver))
	return &runRepository{db: db, logger: logger}, nil
}

func migrateDB(db *sqlx.DB, driver string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	var instance database.Driver
	if driver == DriverPostgres {
		instance, err = migratepg.WithInstance(db.DB, &migratepg.Config{})
	} else {
		instance, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

const runColumns = `id, input_dir, max_videos, bot_threshold, spam_threshold, comparison,
	videos_processed, files_skipped, records_dropped, total_bot_like, total_spam,
	started_at, completed_at`

// SaveRun inserts the run and its flagged entities in one transaction.
func (r *runRepository) SaveRun(run *models.Run, flagged []models.FlaggedEntity) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO runs (` + runColumns + `) VALUES (
		:id, :input_dir, :max_videos, :bot_threshold, :spam_threshold, :comparison,
		:videos_processed, :files_skipped, :records_dropped, :total_bot_like, :total_spam,
		:started_at, :completed_at)`
	if _, err := tx.NamedExec(query, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if len(flagged) > 0 {
		stmt, err := tx.Preparex(tx.Rebind(`INSERT INTO flagged_entities (run_id, entity, entity_type, behavior) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare flagged insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range flagged {
			if _, err := stmt.Exec(run.ID, f.Entity, f.EntityType, f.Behavior); err != nil {
				return fmt.Errorf("failed to save flagged entity: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	r.logger.Info("Run saved",
		zap.String("run_id", run.ID),
		zap.Int("flagged", len(flagged)))
	return nil
}

// GetRun retrieves a run by ID
func (r *runRepository) GetRun(id string) (*models.Run, error) {
	var run models.Run
	err := r.db.Get(&run, r.db.Rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (r *runRepository) ListRuns(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := []*models.Run{}
	err := r.db.Select(&runs, r.db.Rebind(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return runs, nil
}

// GetFlagged returns the entities a run flagged, commenters first.
func (r *runRepository) GetFlagged(runID string) ([]models.FlaggedEntity, error) {
	if _, err := r.GetRun(runID); err != nil {
		return nil, err
	}

	flagged := []models.FlaggedEntity{}
	// "Commenter" sorts after "Comment", so DESC puts commenters first.
	query := `SELECT run_id, entity, entity_type, behavior FROM flagged_entities
		WHERE run_id = ? ORDER BY entity_type DESC, entity`
	if err := r.db.Select(&flagged, r.db.Rebind(query), runID); err != nil {
		return nil, fmt.Errorf("failed to query flagged entities: %w", err)
	}
	return flagged, nil
}

// Close closes the database connection
func (r *runRepository) Close() error {
	return r.db.Close()
}
