package migration

import (
	"context"

	"chemviz/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order.
// Every statement is idempotent, so Run is safe on every startup.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createAuthTokensTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create auth_tokens table")
	}

	if err := r.createEquipmentDatasetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create equipment_datasets table")
	}

	if err := r.createEquipmentRecordsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create equipment_records table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(150) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createAuthTokensTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auth_tokens (
			key VARCHAR(40) PRIMARY KEY,
			user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createEquipmentDatasetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS equipment_datasets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			total_records INTEGER NOT NULL DEFAULT 0,
			avg_flowrate DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_pressure DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_temperature DOUBLE PRECISION NOT NULL DEFAULT 0,
			type_distribution JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`)
	return err
}

func (r *MigrationRunner) createEquipmentRecordsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS equipment_records (
			id BIGSERIAL PRIMARY KEY,
			dataset_id UUID NOT NULL REFERENCES equipment_datasets(id) ON DELETE CASCADE,
			equipment_name VARCHAR(255) NOT NULL,
			equipment_type VARCHAR(255) NOT NULL,
			flowrate DOUBLE PRECISION NOT NULL DEFAULT 0,
			pressure DOUBLE PRECISION NOT NULL DEFAULT 0,
			temperature DOUBLE PRECISION NOT NULL DEFAULT 0
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_equipment_datasets_user_created
			ON equipment_datasets(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_equipment_records_dataset_name
			ON equipment_records(dataset_id, equipment_name)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
