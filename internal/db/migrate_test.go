package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func openRaw(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "index.sqlite"), Writer)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func schemaObjects(t *testing.T, store *Store, kind string) []string {
	t.Helper()
	rows, err := store.DB().Query(`SELECT name FROM sqlite_master WHERE type = ? ORDER BY name`, kind)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func TestMigrateCreatesTablesAndIndexes(t *testing.T) {
	store := openRaw(t)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tables := schemaObjects(t, store, "table")
	for _, want := range Tables {
		if !slices.Contains(tables, want) {
			t.Errorf("table %s does not exist (have %v)", want, tables)
		}
	}

	indexes := schemaObjects(t, store, "index")
	for _, want := range Indexes {
		if !slices.Contains(indexes, want) {
			t.Errorf("index %s does not exist", want)
		}
	}

	triggers := schemaObjects(t, store, "trigger")
	for _, want := range []string{"prompts_ai", "prompts_ad", "prompts_au"} {
		if !slices.Contains(triggers, want) {
			t.Errorf("trigger %s does not exist", want)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openRaw(t)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	before := schemaObjects(t, store, "table")

	if err := Migrate(ctx, store.DB()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	after := schemaObjects(t, store, "table")
	if !slices.Equal(before, after) {
		t.Errorf("tables changed: before %v, after %v", before, after)
	}

	applied, err := store.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	if !slices.Equal(applied, []string{"v1_initial"}) {
		t.Errorf("applied = %v, want [v1_initial]", applied)
	}
}

func TestMigrateFailureKeepsEarlierMigrations(t *testing.T) {
	ctx := context.Background()
	store := openRaw(t)
	boom := errors.New("boom")

	migrations := []Migration{
		{ID: "a_first", Up: execMigration(`CREATE TABLE first (id INTEGER)`)},
		{ID: "b_broken", Up: func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `CREATE TABLE half_done (id INTEGER)`); err != nil {
				return err
			}
			return boom
		}},
		{ID: "c_never", Up: execMigration(`CREATE TABLE never (id INTEGER)`)},
	}

	err := MigrateWith(ctx, store.DB(), migrations)
	var migErr *MigrationFailedError
	if !errors.As(err, &migErr) {
		t.Fatalf("expected MigrationFailedError, got %v", err)
	}
	if migErr.ID != "b_broken" {
		t.Errorf("failed migration = %q, want b_broken", migErr.ID)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected underlying error to be preserved, got %v", err)
	}

	tables := schemaObjects(t, store, "table")
	if !slices.Contains(tables, "first") {
		t.Error("earlier migration was rolled back")
	}
	for _, name := range []string{"half_done", "never"} {
		if slices.Contains(tables, name) {
			t.Errorf("table %s should not exist", name)
		}
	}

	applied, err := store.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	if !slices.Equal(applied, []string{"a_first"}) {
		t.Errorf("applied = %v, want [a_first]", applied)
	}
}

func TestInitWithMigrations(t *testing.T) {
	ctx := context.Background()
	store := openRaw(t)

	custom := []Migration{{ID: "only", Up: execMigration(`CREATE TABLE only_table (id INTEGER)`)}}
	if err := store.Init(ctx, custom...); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tables := schemaObjects(t, store, "table")
	if !slices.Contains(tables, "only_table") || slices.Contains(tables, "prompts") {
		t.Errorf("tables = %v, want only_table without the default schema", tables)
	}
}
