package snapshot

import (
	"context"
	"database/sql"
	"io"

	"github.com/stormlightlabs/prompthoarder/internal/db"
)

// Result counts what Import applied and what it had to skip because the
// referenced document is no longer indexed.
type Result struct {
	Prompts          int
	SkippedPrompts   int
	Workflows        int
	SkippedWorkflows int
	Steps            int
	SkippedSteps     int
}

// Import reads a snapshot written by Export and applies it.
func Import(ctx context.Context, u Updater, r io.Reader) (Result, error) {
	snap, err := Decode(r)
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, u, snap)
}

// Apply re-applies snap in one transaction. Prompts are matched by file path;
// categories and tags are created on first reference. Workflows already
// present (by id) are left alone.
func Apply(ctx context.Context, u Updater, snap Snapshot) (Result, error) {
	var result Result
	err := u.UpdateTx(ctx, func(tx *sql.Tx) error {
		result = Result{}
		for _, name := range snap.Categories {
			if _, err := db.EnsureCategoryTx(ctx, tx, name); err != nil {
				return err
			}
		}
		for _, name := range snap.Tags {
			if _, err := db.EnsureTagTx(ctx, tx, name); err != nil {
				return err
			}
		}

		index, err := db.PromptIndexTx(ctx, tx)
		if err != nil {
			return err
		}

		for _, p := range snap.Prompts {
			ref, ok := index[p.Path]
			if !ok {
				result.SkippedPrompts++
				continue
			}
			if err := restorePrompt(ctx, tx, ref.ID, p); err != nil {
				return err
			}
			result.Prompts++
		}

		for _, w := range snap.Workflows {
			exists, err := db.WorkflowExistsTx(ctx, tx, w.ID)
			if err != nil {
				return err
			}
			if exists {
				result.SkippedWorkflows++
				continue
			}
			if err := db.CreateWorkflowTx(ctx, tx, db.Workflow{
				ID:          w.ID,
				Title:       w.Title,
				Description: w.Description,
				CreatedAt:   w.CreatedAt,
				UpdatedAt:   w.UpdatedAt,
			}); err != nil {
				return err
			}
			result.Workflows++

			for _, step := range w.Steps {
				ref, ok := index[step.Path]
				if !ok {
					result.SkippedSteps++
					continue
				}
				if _, err := db.AddWorkflowStepTx(ctx, tx, db.WorkflowStep{
					WorkflowID:        w.ID,
					PromptID:          ref.ID,
					OrderIndex:        -1,
					Notes:             step.Notes,
					VariableOverrides: step.Overrides,
				}, w.UpdatedAt); err != nil {
					return err
				}
				result.Steps++
			}
		}
		return nil
	})
	return result, err
}

func restorePrompt(ctx context.Context, tx *sql.Tx, id string, p Prompt) error {
	state := db.Prompt{
		ID:         id,
		IsFavorite: p.Favorite,
		IsArchived: p.Archived,
		UsageCount: p.UsageCount,
		LastUsedAt: p.LastUsedAt,
	}
	if p.Category != "" {
		categoryID, err := db.EnsureCategoryTx(ctx, tx, p.Category)
		if err != nil {
			return err
		}
		state.CategoryID = categoryID
	}
	if err := db.RestorePromptStateTx(ctx, tx, state); err != nil {
		return err
	}
	for _, name := range p.Tags {
		tagID, err := db.EnsureTagTx(ctx, tx, name)
		if err != nil {
			return err
		}
		if err := db.TagPromptTx(ctx, tx, id, tagID); err != nil {
			return err
		}
	}
	return nil
}
