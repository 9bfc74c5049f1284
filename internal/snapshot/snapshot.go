// Package snapshot exports and re-imports the curated state of an index:
// everything a rebuild cannot derive from the documents themselves.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stormlightlabs/prompthoarder/internal/codec"
	"github.com/stormlightlabs/prompthoarder/internal/db"
)

// FormatVersion is bumped whenever the snapshot layout changes incompatibly.
const FormatVersion = 1

type Snapshot struct {
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Categories []string   `json:"categories,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Prompts    []Prompt   `json:"prompts,omitempty"`
	Workflows  []Workflow `json:"workflows,omitempty"`
}

// Prompt is the user state of one prompt, keyed by its file path.
type Prompt struct {
	Path       string     `json:"path"`
	Category   string     `json:"category,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Favorite   bool       `json:"favorite,omitempty"`
	Archived   bool       `json:"archived,omitempty"`
	UsageCount int        `json:"usage_count,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

type Workflow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Steps       []Step    `json:"steps,omitempty"`
}

type Step struct {
	Path      string            `json:"path"`
	Notes     string            `json:"notes,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

// Viewer runs read-only work against an index.
type Viewer interface {
	View(ctx context.Context, fn func(*db.Store) error) error
}

// Updater runs a transaction against an index's writer.
type Updater interface {
	UpdateTx(ctx context.Context, fn func(*sql.Tx) error) error
}

// Capture collects the curated state of the index.
func Capture(ctx context.Context, v Viewer, now time.Time) (Snapshot, error) {
	snap := Snapshot{Version: FormatVersion, ExportedAt: now.UTC()}
	err := v.View(ctx, func(s *db.Store) error {
		categories, err := s.ListCategories(ctx)
		if err != nil {
			return err
		}
		categoryNames := make(map[string]string, len(categories))
		for _, c := range categories {
			categoryNames[c.ID] = c.Name
			snap.Categories = append(snap.Categories, c.Name)
		}

		tags, err := s.ListTags(ctx)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			snap.Tags = append(snap.Tags, tag.Name)
		}

		prompts, err := s.ListPrompts(ctx, db.PromptFilter{})
		if err != nil {
			return err
		}
		paths := make(map[string]string, len(prompts))
		for _, p := range prompts {
			paths[p.ID] = p.FilePath
			state, err := promptState(ctx, s, p, categoryNames)
			if err != nil {
				return err
			}
			snap.Prompts = append(snap.Prompts, state)
		}

		workflows, err := s.ListWorkflows(ctx)
		if err != nil {
			return err
		}
		for _, w := range workflows {
			steps, err := s.WorkflowSteps(ctx, w.ID)
			if err != nil {
				return err
			}
			out := Workflow{
				ID:          w.ID,
				Title:       w.Title,
				Description: w.Description,
				CreatedAt:   w.CreatedAt,
				UpdatedAt:   w.UpdatedAt,
			}
			for _, step := range steps {
				out.Steps = append(out.Steps, Step{
					Path:      paths[step.PromptID],
					Notes:     step.Notes,
					Overrides: step.VariableOverrides,
				})
			}
			snap.Workflows = append(snap.Workflows, out)
		}
		return nil
	})
	return snap, err
}

func promptState(ctx context.Context, s *db.Store, p db.Prompt, categoryNames map[string]string) (Prompt, error) {
	tags, err := s.PromptTags(ctx, p.ID)
	if err != nil {
		return Prompt{}, err
	}
	state := Prompt{
		Path:       p.FilePath,
		Category:   categoryNames[p.CategoryID],
		Favorite:   p.IsFavorite,
		Archived:   p.IsArchived,
		UsageCount: p.UsageCount,
		LastUsedAt: p.LastUsedAt,
	}
	for _, tag := range tags {
		state.Tags = append(state.Tags, tag.Name)
	}
	return state, nil
}

// Export writes the curated state of the index as zstd-compressed JSON.
func Export(ctx context.Context, v Viewer, w io.Writer, now time.Time) (Snapshot, error) {
	snap, err := Capture(ctx, v, now)
	if err != nil {
		return Snapshot{}, err
	}
	if err := Encode(w, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func Encode(w io.Writer, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	_, err = w.Write(compressed)
	return err
}

func Decode(r io.Reader) (Snapshot, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := codec.Decompress(compressed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
