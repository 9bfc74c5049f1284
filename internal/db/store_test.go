package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store := openRaw(t)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return store
}

func insertPrompt(t *testing.T, store *Store, path, body string) Prompt {
	t.Helper()
	p := Prompt{
		ID:          uuid.NewString(),
		Title:       path,
		FilePath:    path,
		ContentHash: HashBytes([]byte(body)),
		BodyCache:   body,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	if err := store.WithTx(context.Background(), func(tx *sql.Tx) error {
		return InsertPromptTx(context.Background(), tx, p)
	}); err != nil {
		t.Fatalf("InsertPromptTx(%s) failed: %v", path, err)
	}
	return p
}

func TestEmptyStoreAndCaseInsensitiveNames(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	count, err := store.CountPrompts(ctx)
	if err != nil {
		t.Fatalf("CountPrompts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 prompts, got %d", count)
	}

	if _, err := store.CreateCategory(ctx, "Writing"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := store.CreateTag(ctx, "Draft"); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	_, err = store.CreateCategory(ctx, "writing")
	if err == nil {
		t.Fatal("expected duplicate category to be rejected")
	}
	if !IsUniqueError(err) {
		t.Errorf("expected unique constraint error, got %v", err)
	}

	if _, err := store.CreateTag(ctx, "DRAFT"); !IsUniqueError(err) {
		t.Errorf("expected duplicate tag to be rejected, got %v", err)
	}

	found, err := store.FindCategory(ctx, "WRITING")
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if found.Name != "Writing" {
		t.Errorf("FindCategory name = %q, want Writing", found.Name)
	}
}

func TestEnsureCategoryReusesExisting(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	created, err := store.CreateCategory(ctx, "Coding")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	var ensured string
	if err := store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		ensured, err = EnsureCategoryTx(ctx, tx, "  coding ")
		return err
	}); err != nil {
		t.Fatalf("EnsureCategoryTx failed: %v", err)
	}
	if ensured != created.ID {
		t.Errorf("EnsureCategoryTx created a new category: %s != %s", ensured, created.ID)
	}
}

func TestDeleteCategoryRestrictedByPrompt(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	category, err := store.CreateCategory(ctx, "Writing")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	p := insertPrompt(t, store, "a.md", "alpha")
	if err := store.SetPromptCategory(ctx, p.ID, category.ID); err != nil {
		t.Fatalf("SetPromptCategory failed: %v", err)
	}

	err = store.DeleteCategory(ctx, category.ID)
	if err == nil {
		t.Fatal("expected delete of referenced category to fail")
	}
	if !IsForeignKeyError(err) {
		t.Errorf("expected foreign key error, got %v", err)
	}

	if err := store.DeletePrompt(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrompt failed: %v", err)
	}
	if err := store.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("DeleteCategory after prompt removal failed: %v", err)
	}
}

func TestDeletePromptRestrictedByWorkflowStep(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	p := insertPrompt(t, store, "a.md", "alpha")
	tag, err := store.CreateTag(ctx, "draft")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if err := store.TagPrompt(ctx, p.ID, tag.ID); err != nil {
		t.Fatalf("TagPrompt failed: %v", err)
	}

	w, err := store.CreateWorkflow(ctx, "Review", "", testNow)
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}
	step, err := store.AddWorkflowStep(ctx, WorkflowStep{WorkflowID: w.ID, PromptID: p.ID, OrderIndex: -1}, testNow)
	if err != nil {
		t.Fatalf("AddWorkflowStep failed: %v", err)
	}

	err = store.DeletePrompt(ctx, p.ID)
	if !IsForeignKeyError(err) {
		t.Fatalf("expected foreign key error deleting referenced prompt, got %v", err)
	}

	if err := store.RemoveWorkflowStep(ctx, step.ID, testNow); err != nil {
		t.Fatalf("RemoveWorkflowStep failed: %v", err)
	}
	if err := store.DeletePrompt(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrompt failed: %v", err)
	}

	var links int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM prompt_tags WHERE prompt_id = ?`, p.ID).Scan(&links); err != nil {
		t.Fatalf("count prompt_tags: %v", err)
	}
	if links != 0 {
		t.Errorf("expected tag links to cascade, %d remain", links)
	}

	tagsLeft, err := store.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tagsLeft) != 1 {
		t.Errorf("tags must not be deleted implicitly, have %d", len(tagsLeft))
	}
}

func TestWorkflowSteps(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	a := insertPrompt(t, store, "a.md", "alpha")
	b := insertPrompt(t, store, "b.md", "beta")

	w, err := store.CreateWorkflow(ctx, "Blog post", "draft then edit", testNow)
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}

	first, err := store.AddWorkflowStep(ctx, WorkflowStep{
		WorkflowID:        w.ID,
		PromptID:          a.ID,
		OrderIndex:        -1,
		Notes:             "outline",
		VariableOverrides: map[string]string{"tone": "casual"},
	}, testNow)
	if err != nil {
		t.Fatalf("AddWorkflowStep failed: %v", err)
	}
	second, err := store.AddWorkflowStep(ctx, WorkflowStep{WorkflowID: w.ID, PromptID: b.ID, OrderIndex: -1}, testNow)
	if err != nil {
		t.Fatalf("AddWorkflowStep failed: %v", err)
	}
	if first.OrderIndex != 0 || second.OrderIndex != 1 {
		t.Errorf("order indices = %d, %d, want 0, 1", first.OrderIndex, second.OrderIndex)
	}

	got, err := store.GetWorkflow(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Description != "draft then edit" {
		t.Errorf("description = %q", got.Description)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got.Steps))
	}
	if got.Steps[0].PromptID != a.ID || got.Steps[0].VariableOverrides["tone"] != "casual" {
		t.Errorf("unexpected first step: %+v", got.Steps[0])
	}
	if got.Steps[1].VariableOverrides != nil {
		t.Errorf("expected nil overrides, got %v", got.Steps[1].VariableOverrides)
	}

	second.OrderIndex = 5
	second.Notes = "polish"
	if err := store.UpdateWorkflowStep(ctx, second, testNow.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateWorkflowStep failed: %v", err)
	}
	got, err = store.GetWorkflow(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Steps[1].Notes != "polish" || got.Steps[1].OrderIndex != 5 {
		t.Errorf("step not updated: %+v", got.Steps[1])
	}
	if !got.UpdatedAt.Equal(testNow.Add(time.Minute)) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, testNow.Add(time.Minute))
	}

	if err := store.DeleteWorkflow(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWorkflow failed: %v", err)
	}
	var steps int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM workflow_steps`).Scan(&steps); err != nil {
		t.Fatalf("count steps: %v", err)
	}
	if steps != 0 {
		t.Errorf("expected steps to cascade, %d remain", steps)
	}

	if _, err := store.GetWorkflow(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPromptsFilters(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	a := insertPrompt(t, store, "a.md", "alpha")
	b := insertPrompt(t, store, "b.md", "beta")
	c := insertPrompt(t, store, "c.md", "gamma")

	if err := store.SetFavorite(ctx, a.ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := store.SetArchived(ctx, c.ID, true); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}
	tag, err := store.CreateTag(ctx, "draft")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if err := store.TagPrompt(ctx, b.ID, tag.ID); err != nil {
		t.Fatalf("TagPrompt failed: %v", err)
	}
	if err := store.RecordUsage(ctx, b.ID, testNow); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if err := store.RecordUsage(ctx, c.ID, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	yes, no := true, false
	tests := []struct {
		name   string
		filter PromptFilter
		want   []string
	}{
		{"all", PromptFilter{}, []string{a.ID, b.ID, c.ID}},
		{"favorites", PromptFilter{Favorite: &yes}, []string{a.ID}},
		{"not archived", PromptFilter{Archived: &no}, []string{a.ID, b.ID}},
		{"by tag", PromptFilter{TagID: tag.ID}, []string{b.ID}},
		{"recent", PromptFilter{Recent: true}, []string{c.ID, b.ID}},
		{"limit", PromptFilter{Limit: 1}, []string{a.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompts, err := store.ListPrompts(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListPrompts failed: %v", err)
			}
			var ids []string
			for _, p := range prompts {
				ids = append(ids, p.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("got %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("got %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	p := insertPrompt(t, store, "a.md", "alpha")

	for range 3 {
		if err := store.RecordUsage(ctx, p.ID, testNow); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	got, err := store.GetPrompt(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if got.UsageCount != 3 {
		t.Errorf("usage count = %d, want 3", got.UsageCount)
	}
	if got.LastUsedAt == nil || !got.LastUsedAt.Equal(testNow) {
		t.Errorf("last used = %v, want %v", got.LastUsedAt, testNow)
	}

	if err := store.RecordUsage(ctx, "missing", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPromptPathAndIDUnique(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	p := insertPrompt(t, store, "a.md", "alpha")

	dup := p
	dup.ID = uuid.NewString()
	err := store.WithTx(ctx, func(tx *sql.Tx) error { return InsertPromptTx(ctx, tx, dup) })
	if !IsUniqueError(err) {
		t.Errorf("expected unique error for duplicate file path, got %v", err)
	}

	dup = p
	dup.FilePath = "other.md"
	err = store.WithTx(ctx, func(tx *sql.Tx) error { return InsertPromptTx(ctx, tx, dup) })
	if !IsUniqueError(err) {
		t.Errorf("expected unique error for duplicate id, got %v", err)
	}
}

func TestConstraintErrorClassification(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	category, err := store.CreateCategory(ctx, "Writing")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	p := insertPrompt(t, store, "a.md", "alpha")
	if err := store.SetPromptCategory(ctx, p.ID, category.ID); err != nil {
		t.Fatalf("SetPromptCategory failed: %v", err)
	}

	restrictErr := store.DeleteCategory(ctx, category.ID)
	_, uniqueErr := store.CreateCategory(ctx, "WRITING")

	tests := []struct {
		name       string
		err        error
		foreignKey bool
		unique     bool
	}{
		{"nil", nil, false, false},
		{"plain error", errors.New("FOREIGN KEY constraint failed"), false, false},
		{"restrict", restrictErr, true, false},
		{"wrapped restrict", fmt.Errorf("sync: %w", restrictErr), true, false},
		{"unique", uniqueErr, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsForeignKeyError(tt.err); got != tt.foreignKey {
				t.Errorf("IsForeignKeyError(%v) = %v, want %v", tt.err, got, tt.foreignKey)
			}
			if got := IsUniqueError(tt.err); got != tt.unique {
				t.Errorf("IsUniqueError(%v) = %v, want %v", tt.err, got, tt.unique)
			}
		})
	}
}
