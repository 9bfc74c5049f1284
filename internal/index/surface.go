package index

import (
	"context"
	"os"

	"github.com/stormlightlabs/prompthoarder/internal/db"
)

func (e *Engine) Search(ctx context.Context, query string, limit int) ([]db.SearchResult, error) {
	return view(ctx, e, func(s *db.Store) ([]db.SearchResult, error) { return s.Search(ctx, query, limit) })
}

func (e *Engine) ListPrompts(ctx context.Context, filter db.PromptFilter) ([]db.Prompt, error) {
	return view(ctx, e, func(s *db.Store) ([]db.Prompt, error) { return s.ListPrompts(ctx, filter) })
}

func (e *Engine) GetPrompt(ctx context.Context, id string) (db.Prompt, error) {
	return view(ctx, e, func(s *db.Store) (db.Prompt, error) { return s.GetPrompt(ctx, id) })
}

func (e *Engine) GetPromptByPath(ctx context.Context, path string) (db.Prompt, error) {
	return view(ctx, e, func(s *db.Store) (db.Prompt, error) { return s.GetPromptByPath(ctx, path) })
}

func (e *Engine) PromptTags(ctx context.Context, promptID string) ([]db.Tag, error) {
	return view(ctx, e, func(s *db.Store) ([]db.Tag, error) { return s.PromptTags(ctx, promptID) })
}

func (e *Engine) ListCategories(ctx context.Context) ([]db.Category, error) {
	return view(ctx, e, func(s *db.Store) ([]db.Category, error) { return s.ListCategories(ctx) })
}

func (e *Engine) FindCategory(ctx context.Context, name string) (db.Category, error) {
	return view(ctx, e, func(s *db.Store) (db.Category, error) { return s.FindCategory(ctx, name) })
}

func (e *Engine) ListTags(ctx context.Context) ([]db.Tag, error) {
	return view(ctx, e, func(s *db.Store) ([]db.Tag, error) { return s.ListTags(ctx) })
}

func (e *Engine) FindTag(ctx context.Context, name string) (db.Tag, error) {
	return view(ctx, e, func(s *db.Store) (db.Tag, error) { return s.FindTag(ctx, name) })
}

func (e *Engine) ListWorkflows(ctx context.Context) ([]db.Workflow, error) {
	return view(ctx, e, func(s *db.Store) ([]db.Workflow, error) { return s.ListWorkflows(ctx) })
}

func (e *Engine) GetWorkflow(ctx context.Context, id string) (db.Workflow, error) {
	return view(ctx, e, func(s *db.Store) (db.Workflow, error) { return s.GetWorkflow(ctx, id) })
}

// RecordUsage bumps the usage counter of a prompt and stamps it as used now.
func (e *Engine) RecordUsage(ctx context.Context, id string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.RecordUsage(ctx, id, e.now()) })
}

func (e *Engine) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return e.Update(ctx, func(s *db.Store) error { return s.SetFavorite(ctx, id, favorite) })
}

func (e *Engine) SetArchived(ctx context.Context, id string, archived bool) error {
	return e.Update(ctx, func(s *db.Store) error { return s.SetArchived(ctx, id, archived) })
}

func (e *Engine) SetPromptCategory(ctx context.Context, id, categoryID string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.SetPromptCategory(ctx, id, categoryID) })
}

func (e *Engine) DeletePrompt(ctx context.Context, id string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.DeletePrompt(ctx, id) })
}

func (e *Engine) CreateCategory(ctx context.Context, name string) (db.Category, error) {
	return update(ctx, e, func(s *db.Store) (db.Category, error) { return s.CreateCategory(ctx, name) })
}

func (e *Engine) RenameCategory(ctx context.Context, id, name string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.RenameCategory(ctx, id, name) })
}

func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.DeleteCategory(ctx, id) })
}

func (e *Engine) CreateTag(ctx context.Context, name string) (db.Tag, error) {
	return update(ctx, e, func(s *db.Store) (db.Tag, error) { return s.CreateTag(ctx, name) })
}

func (e *Engine) RenameTag(ctx context.Context, id, name string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.RenameTag(ctx, id, name) })
}

func (e *Engine) DeleteTag(ctx context.Context, id string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.DeleteTag(ctx, id) })
}

func (e *Engine) TagPrompt(ctx context.Context, promptID, tagID string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.TagPrompt(ctx, promptID, tagID) })
}

func (e *Engine) UntagPrompt(ctx context.Context, promptID, tagID string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.UntagPrompt(ctx, promptID, tagID) })
}

func (e *Engine) CreateWorkflow(ctx context.Context, title, description string) (db.Workflow, error) {
	return update(ctx, e, func(s *db.Store) (db.Workflow, error) {
		return s.CreateWorkflow(ctx, title, description, e.now())
	})
}

func (e *Engine) UpdateWorkflow(ctx context.Context, id, title, description string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.UpdateWorkflow(ctx, id, title, description, e.now()) })
}

func (e *Engine) DeleteWorkflow(ctx context.Context, id string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.DeleteWorkflow(ctx, id) })
}

// AddWorkflowStep appends step when its OrderIndex is negative.
func (e *Engine) AddWorkflowStep(ctx context.Context, step db.WorkflowStep) (db.WorkflowStep, error) {
	return update(ctx, e, func(s *db.Store) (db.WorkflowStep, error) {
		return s.AddWorkflowStep(ctx, step, e.now())
	})
}

func (e *Engine) UpdateWorkflowStep(ctx context.Context, step db.WorkflowStep) error {
	return e.Update(ctx, func(s *db.Store) error { return s.UpdateWorkflowStep(ctx, step, e.now()) })
}

func (e *Engine) RemoveWorkflowStep(ctx context.Context, stepID string) error {
	return e.Update(ctx, func(s *db.Store) error { return s.RemoveWorkflowStep(ctx, stepID, e.now()) })
}

// Stats summarizes the index for `info` and the MCP server.
type Stats struct {
	Path          string
	State         State
	SizeBytes     int64
	JournalMode   string
	Migrations    []string
	Prompts       int
	SearchEntries int
	Categories    int
	Tags          int
	Workflows     int
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: e.path, State: e.State()}
	if info, err := os.Stat(e.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	err := e.View(ctx, func(s *db.Store) error {
		var err error
		if stats.JournalMode, err = s.JournalMode(ctx); err != nil {
			return err
		}
		if stats.Migrations, err = s.AppliedMigrations(ctx); err != nil {
			return err
		}
		if stats.Prompts, err = s.CountPrompts(ctx); err != nil {
			return err
		}
		if stats.SearchEntries, err = s.CountSearchEntries(ctx); err != nil {
			return err
		}
		categories, err := s.ListCategories(ctx)
		if err != nil {
			return err
		}
		tags, err := s.ListTags(ctx)
		if err != nil {
			return err
		}
		workflows, err := s.ListWorkflows(ctx)
		if err != nil {
			return err
		}
		stats.Categories, stats.Tags, stats.Workflows = len(categories), len(tags), len(workflows)
		return nil
	})
	return stats, err
}
