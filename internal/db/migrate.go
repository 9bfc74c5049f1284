package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is a single versioned schema change. ID is recorded in
// schema_migrations once Up commits.
type Migration struct {
	ID string
	Up func(ctx context.Context, tx *sql.Tx) error
}

// MigrationFailedError reports a migration whose transaction was rolled back.
// Migrations applied before it stay committed.
type MigrationFailedError struct {
	ID  string
	Err error
}

func (e *MigrationFailedError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("migration failed: %v", e.Err)
	}
	return fmt.Sprintf("migration %s failed: %v", e.ID, e.Err)
}

func (e *MigrationFailedError) Unwrap() error {
	return e.Err
}

// Migrations returns the registered migrations in application order.
func Migrations() []Migration {
	return []Migration{
		{ID: "v1_initial", Up: execMigration(initialSchema)},
	}
}

func execMigration(stmt string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
}

// Migrate applies every registered migration that has not been applied yet.
func Migrate(ctx context.Context, conn *sql.DB) error {
	return MigrateWith(ctx, conn, Migrations())
}

// Init brings the schema up to date. With no arguments it applies the
// registered migrations.
func (s *Store) Init(ctx context.Context, migrations ...Migration) error {
	if len(migrations) == 0 {
		return Migrate(ctx, s.db)
	}
	return MigrateWith(ctx, s.db, migrations)
}

// OpenEmpty opens a private in-memory store carrying the current schema and
// no rows.
func OpenEmpty(ctx context.Context) (*Store, error) {
	s, err := Open(":memory:", Writer)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// MigrateWith applies the given migrations in order, each inside its own
// transaction. Calling it again with the same list is a no-op.
func MigrateWith(ctx context.Context, conn *sql.DB, migrations []Migration) error {
	if _, err := conn.ExecContext(ctx, migrationsTable); err != nil {
		return &MigrationFailedError{Err: fmt.Errorf("create schema_migrations: %w", err)}
	}

	applied, err := appliedSet(ctx, conn)
	if err != nil {
		return &MigrationFailedError{Err: err}
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := applyMigration(ctx, conn, m); err != nil {
			return &MigrationFailedError{ID: m.ID, Err: err}
		}
		applied[m.ID] = true
	}
	return nil
}

func applyMigration(ctx context.Context, conn *sql.DB, m Migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.Up(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)`,
		m.ID, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

func appliedSet(ctx context.Context, conn *sql.DB) (map[string]bool, error) {
	ids, err := appliedMigrations(ctx, conn)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func appliedMigrations(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM schema_migrations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppliedMigrations returns the ids recorded in schema_migrations.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	return appliedMigrations(ctx, s.db)
}
