package index

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

// memSource is a mutable in-memory vault.
type memSource struct {
	mu   sync.Mutex
	docs map[string]string
	err  error
}

func newMemSource(docs map[string]string) *memSource {
	return &memSource{docs: docs}
}

func (m *memSource) Documents(ctx context.Context) ([]vault.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var docs vault.Static
	for path, content := range m.docs {
		docs = append(docs, vault.Document{Path: path, Content: []byte(content)})
	}
	return docs.Documents(ctx)
}

func (m *memSource) set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = content
}

func (m *memSource) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, src vault.Source) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	engine, err := New(Options{
		Path:   filepath.Join(t.TempDir(), "data", "index.sqlite"),
		Source: src,
		Logger: log.New(io.Discard),
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine, clock
}

func initialized(t *testing.T, src vault.Source) (*Engine, *fakeClock) {
	t.Helper()
	engine, clock := newTestEngine(t, src)
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return engine, clock
}

func rebuild(t *testing.T, engine *Engine) Summary {
	t.Helper()
	summary, err := engine.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	return summary
}

func promptByPath(t *testing.T, engine *Engine, path string) db.Prompt {
	t.Helper()
	p, err := engine.GetPromptByPath(context.Background(), path)
	if err != nil {
		t.Fatalf("GetPromptByPath(%s) failed: %v", path, err)
	}
	return p
}

func countPrompts(t *testing.T, engine *Engine) int {
	t.Helper()
	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	return stats.Prompts
}

func TestNewRequiresPathAndSource(t *testing.T) {
	if _, err := New(Options{Source: vault.Static{}}); err == nil {
		t.Error("expected error without path")
	}
	if _, err := New(Options{Path: "x.sqlite"}); err == nil {
		t.Error("expected error without source")
	}
}

func TestInitializeEmptyStore(t *testing.T) {
	ctx := context.Background()
	engine, _ := initialized(t, newMemSource(map[string]string{}))

	if got := engine.State(); got.Status != Ready {
		t.Fatalf("state = %v, want ready", got)
	}
	stats, err := engine.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Prompts != 0 {
		t.Errorf("prompts = %d, want 0", stats.Prompts)
	}
	if stats.JournalMode != "wal" {
		t.Errorf("journal mode = %q, want wal", stats.JournalMode)
	}
	if !slices.Equal(stats.Migrations, []string{"v1_initial"}) {
		t.Errorf("migrations = %v", stats.Migrations)
	}

	if _, err := engine.CreateCategory(ctx, "Writing"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := engine.CreateTag(ctx, "Draft"); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if _, err := engine.CreateCategory(ctx, "writing"); !db.IsUniqueError(err) {
		t.Errorf("expected unique violation for duplicate category, got %v", err)
	}
	if _, err := engine.CreateTag(ctx, "DRAFT"); !db.IsUniqueError(err) {
		t.Errorf("expected unique violation for duplicate tag, got %v", err)
	}
}

func TestInitializeTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	engine, _ := initialized(t, newMemSource(map[string]string{"a.md": "alpha"}))
	rebuild(t, engine)

	if err := engine.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if got := countPrompts(t, engine); got != 1 {
		t.Errorf("prompts = %d, want 1", got)
	}
}

func TestOperationsBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, newMemSource(map[string]string{}))

	checks := map[string]error{}
	_, checks["search"] = engine.Search(ctx, "x", 10)
	_, checks["list"] = engine.ListPrompts(ctx, db.PromptFilter{})
	checks["usage"] = engine.RecordUsage(ctx, "id")
	_, checks["category"] = engine.CreateCategory(ctx, "Writing")
	_, checks["sync"] = engine.Sync(ctx, nil)
	_, checks["stats"] = engine.Stats(ctx)

	for name, err := range checks {
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%s: expected ErrNotInitialized, got %v", name, err)
		}
	}
	if got := engine.State().Status; got != Disconnected {
		t.Errorf("status = %v, want disconnected", got)
	}
}

func TestInitializeMigrationFailure(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{})
	engine, err := New(Options{
		Path:   filepath.Join(t.TempDir(), "index.sqlite"),
		Source: src,
		Logger: log.New(io.Discard),
		Migrations: []db.Migration{
			{ID: "broken", Up: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `CREATE TABLE oops (`)
				return err
			}},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer engine.Close()

	err = engine.Initialize(ctx)
	var migrationErr *db.MigrationFailedError
	if !errors.As(err, &migrationErr) {
		t.Fatalf("expected MigrationFailedError, got %v", err)
	}
	if migrationErr.ID != "broken" {
		t.Errorf("failed migration = %q, want broken", migrationErr.ID)
	}
	if got := engine.State().Status; got != Disconnected {
		t.Errorf("status = %v, want disconnected", got)
	}
	if _, err := engine.Search(ctx, "x", 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after failed migration, got %v", err)
	}
	_, err = engine.Rebuild(ctx, nil)
	var rebuildErr *RebuildFailedError
	if !errors.As(err, &rebuildErr) || rebuildErr.Phase != PhaseCreatingSchema {
		t.Fatalf("expected RebuildFailedError in %s, got %v", PhaseCreatingSchema, err)
	}
	if got := engine.State().Status; got != Disconnected {
		t.Errorf("status after failed rebuild = %v, want disconnected", got)
	}
	if _, err := engine.ListPrompts(ctx, db.PromptFilter{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after failed rebuild, got %v", err)
	}
}

func TestRebuildRemovesDeletedDocuments(t *testing.T) {
	src := newMemSource(map[string]string{
		"a.md": "hello {{name}}",
		"b.md": "world",
	})
	engine, _ := initialized(t, src)

	summary := rebuild(t, engine)
	if summary.Added != 2 {
		t.Errorf("added = %d, want 2", summary.Added)
	}
	if got := countPrompts(t, engine); got != 2 {
		t.Fatalf("prompts = %d, want 2", got)
	}
	bID := promptByPath(t, engine, "b.md").ID

	src.remove("a.md")
	rebuild(t, engine)

	if got := countPrompts(t, engine); got != 1 {
		t.Fatalf("prompts = %d, want 1", got)
	}
	if got := promptByPath(t, engine, "b.md").ID; got != bID {
		t.Errorf("b.md id changed across rebuild: %s -> %s", bID, got)
	}
	if _, err := engine.GetPromptByPath(context.Background(), "a.md"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected a.md to be gone, got %v", err)
	}
}

func TestRebuildPreservesUnchangedAndUpdatesChanged(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{
		"same.md":    "# Stable\n\nnothing changes here",
		"changed.md": "first draft about otters",
	})
	engine, clock := initialized(t, src)
	rebuild(t, engine)

	same := promptByPath(t, engine, "same.md")
	changed := promptByPath(t, engine, "changed.md")

	clock.Advance(time.Hour)
	src.set("changed.md", "second draft about beavers")
	summary := rebuild(t, engine)
	if summary.Unchanged != 1 || summary.Updated != 1 {
		t.Errorf("summary = %+v, want 1 unchanged and 1 updated", summary)
	}

	sameAfter := promptByPath(t, engine, "same.md")
	if sameAfter.ID != same.ID || sameAfter.ContentHash != same.ContentHash ||
		sameAfter.BodyCache != same.BodyCache || !sameAfter.UpdatedAt.Equal(same.UpdatedAt) {
		t.Errorf("unchanged prompt was rewritten: before %+v after %+v", same, sameAfter)
	}

	changedAfter := promptByPath(t, engine, "changed.md")
	if changedAfter.ID != changed.ID {
		t.Errorf("changed prompt id = %s, want %s", changedAfter.ID, changed.ID)
	}
	if changedAfter.ContentHash == changed.ContentHash {
		t.Error("content hash not updated")
	}
	if !changedAfter.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("updated_at = %v, want %v", changedAfter.UpdatedAt, clock.Now())
	}
	if !changedAfter.CreatedAt.Equal(changed.CreatedAt) {
		t.Errorf("created_at = %v, want %v", changedAfter.CreatedAt, changed.CreatedAt)
	}

	results, err := engine.Search(ctx, "beavers", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].PromptID != changed.ID {
		t.Errorf("search for new content = %+v", results)
	}
	if results, _ := engine.Search(ctx, "otters", 10); len(results) != 0 {
		t.Errorf("stale content still searchable: %+v", results)
	}
}

func TestRebuildReportsPhasesInOrder(t *testing.T) {
	src := newMemSource(map[string]string{"a.md": "a", "b.md": "b", "c.md": "c"})
	engine, _ := initialized(t, src)

	var events []Progress
	var states []State
	_, err := engine.Rebuild(context.Background(), func(p Progress) {
		events = append(events, p)
		states = append(states, engine.State())
	})
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	var phases []Phase
	for _, ev := range events {
		if len(phases) == 0 || phases[len(phases)-1] != ev.Phase {
			phases = append(phases, ev.Phase)
		}
	}
	if !slices.Equal(phases, RebuildPhases) {
		t.Errorf("phases = %v, want %v", phases, RebuildPhases)
	}

	scanned := false
	processed := 0
	for _, ev := range events {
		if ev.Phase == PhaseIndexingDocuments || scanned {
			scanned = true
			if ev.DocumentsTotal != 3 {
				t.Errorf("%s: total = %d, want 3", ev.Phase, ev.DocumentsTotal)
			}
		}
		if ev.DocumentsProcessed < processed {
			t.Errorf("%s: processed went backwards: %d -> %d", ev.Phase, processed, ev.DocumentsProcessed)
		}
		processed = ev.DocumentsProcessed
	}
	if last := events[len(events)-1]; last.Phase != PhaseComplete || last.DocumentsProcessed != 3 {
		t.Errorf("last event = %+v", last)
	}

	for i, st := range states {
		if st.Status != Rebuilding || st.Phase != events[i].Phase {
			t.Errorf("state at %s event = %v", events[i].Phase, st)
		}
	}
	if got := engine.State().Status; got != Ready {
		t.Errorf("status after rebuild = %v, want ready", got)
	}
}

func TestReadsDuringRebuildSeeEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha", "b.md": "beta"})
	engine, _ := initialized(t, src)
	rebuild(t, engine)

	var (
		listed    []db.Prompt
		listErr   error
		getErr    error
		found     []db.SearchResult
		searchErr error
	)
	_, err := engine.Rebuild(ctx, func(p Progress) {
		if p.Phase != PhaseCreatingSchema {
			return
		}
		listed, listErr = engine.ListPrompts(ctx, db.PromptFilter{})
		_, getErr = engine.GetPromptByPath(ctx, "a.md")
		found, searchErr = engine.Search(ctx, "alpha", 10)
	})
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if listErr != nil || len(listed) != 0 {
		t.Errorf("ListPrompts mid-rebuild = %d prompts, %v; want empty", len(listed), listErr)
	}
	if !errors.Is(getErr, db.ErrNotFound) {
		t.Errorf("GetPromptByPath mid-rebuild err = %v, want ErrNotFound", getErr)
	}
	if searchErr != nil || len(found) != 0 {
		t.Errorf("Search mid-rebuild = %v, %v; want empty", found, searchErr)
	}
	if got := countPrompts(t, engine); got != 2 {
		t.Errorf("prompts after rebuild = %d, want 2", got)
	}
}

func TestRebuildFailureLeavesReadableStore(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha"})
	engine, _ := initialized(t, src)
	rebuild(t, engine)

	src.err = errors.New("disk on fire")
	_, err := engine.Rebuild(ctx, nil)

	var rebuildErr *RebuildFailedError
	if !errors.As(err, &rebuildErr) {
		t.Fatalf("expected RebuildFailedError, got %v", err)
	}
	if rebuildErr.Phase != PhaseScanningSource {
		t.Errorf("phase = %s, want %s", rebuildErr.Phase, PhaseScanningSource)
	}
	if !errors.Is(err, src.err) {
		t.Errorf("underlying cause lost: %v", err)
	}

	if _, statErr := os.Stat(engine.Path()); statErr != nil {
		t.Fatalf("index file missing after failed rebuild: %v", statErr)
	}
	if got := engine.State().Status; got != Ready {
		t.Errorf("status = %v, want ready", got)
	}
	if got := countPrompts(t, engine); got != 0 {
		t.Errorf("prompts = %d, want 0 (store emptied by the failed rebuild)", got)
	}

	src.err = nil
	rebuild(t, engine)
	if got := countPrompts(t, engine); got != 1 {
		t.Errorf("prompts after recovery = %d, want 1", got)
	}
}

func TestRebuildDiscardsStaleFiles(t *testing.T) {
	engine, _ := newTestEngine(t, newMemSource(map[string]string{"a.md": "alpha"}))
	if err := db.EnsureDir(engine.Path()); err != nil {
		t.Fatal(err)
	}
	for _, name := range db.Files(engine.Path()) {
		if err := os.WriteFile(name, []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rebuild(t, engine)

	for _, name := range db.Files(engine.Path())[1:] {
		if content, err := os.ReadFile(name); err == nil && string(content) == "stale" {
			t.Errorf("%s survived the rebuild", filepath.Base(name))
		}
	}
	if got := countPrompts(t, engine); got != 1 {
		t.Errorf("prompts = %d, want 1", got)
	}
}

func TestRebuildAppliesFrontMatter(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{
		"review.md": "---\ntitle: Code Review\ncategory: Engineering\ntags: [go, Review]\n---\nReview {{file}}",
	})
	engine, _ := initialized(t, src)
	rebuild(t, engine)

	p := promptByPath(t, engine, "review.md")
	if p.Title != "Code Review" {
		t.Errorf("title = %q", p.Title)
	}
	category, err := engine.FindCategory(ctx, "engineering")
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if p.CategoryID != category.ID {
		t.Errorf("category = %q, want %q", p.CategoryID, category.ID)
	}
	tags, err := engine.PromptTags(ctx, p.ID)
	if err != nil {
		t.Fatalf("PromptTags failed: %v", err)
	}
	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	if !slices.Equal(names, []string{"go", "Review"}) {
		t.Errorf("tags = %v", names)
	}
}

func TestRebuildIndexesDocumentWithInvalidFrontMatter(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{
		"good.md":  "# Good\n\nalpha",
		"typo.md":  "---\ntitle: [unclosed\n---\n# Draft Notes\n\nzeppelin",
		"other.md": "beta",
	})
	engine, _ := initialized(t, src)

	summary := rebuild(t, engine)
	if summary.Scanned != 3 || summary.Added != 3 {
		t.Fatalf("summary = %+v, want 3 scanned and added", summary)
	}

	p := promptByPath(t, engine, "typo.md")
	if p.Title != "Draft Notes" {
		t.Errorf("title = %q, want heading-derived title", p.Title)
	}
	if p.ContentHash != db.HashBytes([]byte(src.docs["typo.md"])) {
		t.Error("content hash should cover the raw document")
	}
	results, err := engine.Search(ctx, "zeppelin", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].PromptID != p.ID {
		t.Errorf("search = %+v, want the document body to be indexed", results)
	}
}

func TestSyncUnchangedVaultKeepsState(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha", "b.md": "beta"})
	engine, clock := initialized(t, src)
	rebuild(t, engine)

	a := promptByPath(t, engine, "a.md")
	if err := engine.SetFavorite(ctx, a.ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := engine.RecordUsage(ctx, a.ID); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	clock.Advance(time.Hour)
	summary, err := engine.Sync(ctx, nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if summary.Unchanged != 2 || summary.Added+summary.Updated+summary.Removed != 0 {
		t.Errorf("summary = %+v, want everything unchanged", summary)
	}

	after := promptByPath(t, engine, "a.md")
	if !after.UpdatedAt.Equal(a.UpdatedAt) {
		t.Errorf("updated_at changed: %v -> %v", a.UpdatedAt, after.UpdatedAt)
	}
	if !after.IsFavorite || after.UsageCount != 1 {
		t.Errorf("user state lost: %+v", after)
	}
}

func TestSyncAddsUpdatesAndRemoves(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha", "b.md": "beta"})
	engine, _ := initialized(t, src)
	rebuild(t, engine)
	b := promptByPath(t, engine, "b.md")

	src.remove("a.md")
	src.set("b.md", "beta revised")
	src.set("c.md", "gamma")

	summary, err := engine.Sync(ctx, nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	want := Summary{Scanned: 2, Added: 1, Updated: 1, Removed: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if got := promptByPath(t, engine, "b.md"); got.ID != b.ID || got.BodyCache != "beta revised" {
		t.Errorf("b.md = %+v", got)
	}
}

func TestSyncFailsOnReferencedPromptRemoval(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha", "b.md": "beta"})
	engine, _ := initialized(t, src)
	rebuild(t, engine)
	a := promptByPath(t, engine, "a.md")

	w, err := engine.CreateWorkflow(ctx, "Pipeline", "")
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}
	if _, err := engine.AddWorkflowStep(ctx, db.WorkflowStep{WorkflowID: w.ID, PromptID: a.ID, OrderIndex: -1}); err != nil {
		t.Fatalf("AddWorkflowStep failed: %v", err)
	}

	src.remove("a.md")
	src.set("b.md", "beta revised")
	_, err = engine.Sync(ctx, nil)

	var rebuildErr *RebuildFailedError
	if !errors.As(err, &rebuildErr) {
		t.Fatalf("expected RebuildFailedError, got %v", err)
	}
	if rebuildErr.Phase != PhaseIndexingDocuments {
		t.Errorf("phase = %s, want %s", rebuildErr.Phase, PhaseIndexingDocuments)
	}
	if !db.IsForeignKeyError(err) {
		t.Errorf("expected foreign key violation underneath, got %v", err)
	}

	if got := promptByPath(t, engine, "a.md"); got.ID != a.ID {
		t.Errorf("a.md should survive the failed sync")
	}
	if got := promptByPath(t, engine, "b.md"); got.BodyCache != "beta" {
		t.Errorf("failed sync must not apply partial updates, b.md body = %q", got.BodyCache)
	}
	if got := engine.State().Status; got != Ready {
		t.Errorf("status = %v, want ready", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, _ := initialized(t, newMemSource(map[string]string{}))

	if err := engine.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if got := engine.State().Status; got != Disconnected {
		t.Errorf("status = %v, want disconnected", got)
	}
	if _, err := engine.Search(ctx, "x", 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after Close, got %v", err)
	}
	if err := engine.Initialize(ctx); err != nil {
		t.Fatalf("re-Initialize failed: %v", err)
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	src := newMemSource(map[string]string{"a.md": "alpha search token", "b.md": "beta"})
	engine, _ := initialized(t, src)
	rebuild(t, engine)
	a := promptByPath(t, engine, "a.md")

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- engine.RecordUsage(ctx, a.ID)
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Search(ctx, "token", 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent operation failed: %v", err)
		}
	}

	if got := promptByPath(t, engine, "a.md"); got.UsageCount != 10 {
		t.Errorf("usage = %d, want 10", got.UsageCount)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{State{Status: Disconnected}, "disconnected"},
		{State{Status: Ready}, "ready"},
		{State{Status: Rebuilding, Phase: PhaseScanningSource}, "rebuilding(scanning-source)"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
