package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvloznov/finance-chat/internal/store/postgres"
)

type postgresMigrator struct {
	db *sql.DB
}

func newPostgresMigrator(ctx context.Context, databaseURL string) (*postgresMigrator, error) {
	db, err := postgres.OpenDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &postgresMigrator{db: db}, nil
}

func (m *postgresMigrator) EnsureSchemaMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			checksum   TEXT,
			applied_by TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}
	return nil
}

func (m *postgresMigrator) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT version, name, applied_at, COALESCE(checksum, ''), COALESCE(applied_by, '')
		FROM schema_migrations
		ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.AppliedAt, &am.Checksum, &am.AppliedBy); err != nil {
			return nil, fmt.Errorf("scanning applied migration: %w", err)
		}
		applied = append(applied, am)
	}
	return applied, rows.Err()
}

func (m *postgresMigrator) Execute(ctx context.Context, migration Migration) error {
	if _, err := m.db.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	return nil
}

func (m *postgresMigrator) Record(ctx context.Context, migration Migration, appliedBy string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, checksum, applied_by) VALUES ($1, $2, $3, $4)`,
		migration.Version, migration.Name, migration.Checksum, appliedBy)
	if err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return nil
}

func (m *postgresMigrator) Close() error {
	return m.db.Close()
}
