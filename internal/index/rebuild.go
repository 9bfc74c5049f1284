package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

// Summary counts what one rebuild or sync did to the prompt table.
type Summary struct {
	Scanned   int
	Added     int
	Updated   int
	Unchanged int
	Removed   int
}

type scanned struct {
	doc    vault.Document
	hash   string
	parsed vault.Parsed
}

// Rebuild discards the index files and regenerates the index from the
// source. Prompt ids, creation times and, for unchanged documents, the
// content columns carry over from the discarded index by file path;
// categories, tags, flags, usage and workflows do not.
//
// A failure after the old files are removed leaves an empty (or partially
// indexed) store rather than the previous one. Rebuild also recovers a
// disconnected engine whose store failed to migrate.
func (e *Engine) Rebuild(ctx context.Context, observer Observer) (Summary, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer e.settle()

	phase := PhaseDeletingOldStore
	fail := func(err error) (Summary, error) {
		e.logger.Error("rebuild failed", "phase", phase, "err", err)
		if e.writerHandle() == nil {
			if reopenErr := e.connect(ctx); reopenErr != nil {
				e.logger.Warn("could not reopen index after failed rebuild", "err", reopenErr)
			}
		}
		return Summary{}, &RebuildFailedError{Phase: phase, Err: err}
	}

	e.logger.Info("rebuild starting", "path", e.path)
	e.setPhase(phase)
	observer.report(phase, 0, 0)

	carry, err := e.carryOver(ctx)
	if err != nil {
		return fail(err)
	}
	if err := e.deleteStore(ctx); err != nil {
		return fail(err)
	}

	phase = PhaseCreatingSchema
	e.setPhase(phase)
	observer.report(phase, 0, 0)
	if err := e.connect(ctx); err != nil {
		return fail(err)
	}

	return e.run(ctx, observer, carry, &phase, fail)
}

// Sync re-scans the source and applies the differences to the live index
// without discarding it. User state survives; removing a document still
// referenced by a workflow step fails the whole sync.
func (e *Engine) Sync(ctx context.Context, observer Observer) (Summary, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.writerHandle() == nil {
		return Summary{}, ErrNotInitialized
	}
	defer e.settle()

	phase := PhaseScanningSource
	fail := func(err error) (Summary, error) {
		e.logger.Error("sync failed", "phase", phase, "err", err)
		return Summary{}, &RebuildFailedError{Phase: phase, Err: err}
	}
	e.logger.Info("sync starting", "path", e.path)
	return e.run(ctx, observer, nil, &phase, fail)
}

// run executes the scan, index and search-index phases shared by Rebuild
// and Sync. Caller holds writeMu.
func (e *Engine) run(
	ctx context.Context,
	observer Observer,
	carry map[string]db.Prompt,
	phase *Phase,
	fail func(error) (Summary, error),
) (Summary, error) {
	enter := func(p Phase, processed, total int) {
		*phase = p
		e.setPhase(p)
		observer.report(p, processed, total)
	}

	enter(PhaseScanningSource, 0, 0)
	docs, err := e.scan(ctx)
	if err != nil {
		return fail(err)
	}
	total := len(docs)
	summary := Summary{Scanned: total}

	enter(PhaseIndexingDocuments, 0, total)
	writer := e.writerHandle()
	err = writer.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		summary, err = e.indexDocuments(ctx, tx, docs, carry, func(processed int) {
			observer.report(PhaseIndexingDocuments, processed, total)
		})
		return err
	})
	if err != nil {
		return fail(err)
	}

	enter(PhaseRebuildingSearchIndex, total, total)
	if err := writer.WithTx(ctx, func(tx *sql.Tx) error { return db.RebuildSearchIndexTx(ctx, tx) }); err != nil {
		return fail(err)
	}

	enter(PhaseComplete, total, total)
	e.logger.Info(
		"index synchronized",
		"scanned", summary.Scanned,
		"added", summary.Added,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"removed", summary.Removed,
	)
	return summary, nil
}

func (e *Engine) writerHandle() *db.Store {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.writer
}

// carryOver snapshots the identity of every indexed prompt before the store
// is discarded. A missing or unreadable store carries nothing over.
func (e *Engine) carryOver(ctx context.Context) (map[string]db.Prompt, error) {
	carry := make(map[string]db.Prompt)
	err := e.View(ctx, func(s *db.Store) error {
		prompts, err := s.ListPrompts(ctx, db.PromptFilter{})
		if err != nil {
			return err
		}
		for _, p := range prompts {
			carry[p.FilePath] = p
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotInitialized) {
		e.logger.Warn("previous index unreadable, prompt ids will not carry over", "err", err)
	}
	return carry, nil
}

// deleteStore closes both handles and removes the index and its journal
// files. Until connect publishes the new index, reads are served by an empty
// in-memory store. Readers block only for the swap itself.
func (e *Engine) deleteStore(ctx context.Context) error {
	empty, err := db.OpenEmpty(ctx)
	if err != nil {
		e.logger.Warn("no empty store for reads during rebuild", "err", err)
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	closeErr := errors.Join(e.reader.Close(), e.writer.Close())
	e.writer, e.reader = nil, empty
	if closeErr != nil {
		return closeErr
	}
	return db.RemoveFiles(e.path)
}

func (e *Engine) scan(ctx context.Context) ([]scanned, error) {
	docs, err := e.source.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	out := make([]scanned, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.Path] {
			return nil, fmt.Errorf("duplicate document path %q", doc.Path)
		}
		seen[doc.Path] = true

		parsed, err := vault.Parse(doc)
		if errors.Is(err, vault.ErrInvalidFrontMatter) {
			e.logger.Warn("ignoring front matter", "path", doc.Path, "err", err)
		} else if err != nil {
			return nil, err
		}
		out = append(out, scanned{doc: doc, hash: db.HashBytes(doc.Content), parsed: parsed})
	}
	return out, nil
}

// indexDocuments upserts every scanned document and removes prompts whose
// file is gone. It runs inside a single writer transaction.
func (e *Engine) indexDocuments(
	ctx context.Context,
	tx *sql.Tx,
	docs []scanned,
	carry map[string]db.Prompt,
	progress func(int),
) (Summary, error) {
	summary := Summary{Scanned: len(docs)}
	current, err := db.PromptIndexTx(ctx, tx)
	if err != nil {
		return summary, err
	}
	now := e.now()

	present := make(map[string]bool, len(docs))
	for i, s := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		present[s.doc.Path] = true

		ref, indexed := current[s.doc.Path]
		switch {
		case indexed && ref.ContentHash == s.hash:
			summary.Unchanged++
		case indexed:
			if err := e.updatePrompt(ctx, tx, ref.ID, s, now); err != nil {
				return summary, err
			}
			summary.Updated++
		default:
			changed, err := e.insertPrompt(ctx, tx, s, carry[s.doc.Path], now)
			if err != nil {
				return summary, err
			}
			switch {
			case !changed:
				summary.Unchanged++
			case carry[s.doc.Path].ID != "":
				summary.Updated++
			default:
				summary.Added++
			}
		}
		progress(i + 1)
	}

	paths := make([]string, 0, len(current))
	for path := range current {
		if !present[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := db.DeletePromptTx(ctx, tx, current[path].ID); err != nil {
			return summary, fmt.Errorf("remove %s: %w", path, err)
		}
		e.logger.Debug("removed prompt", "path", path)
		summary.Removed++
	}
	return summary, nil
}

// insertPrompt adds a prompt for a path the store does not know. A carried
// prompt keeps its id and creation time, and its content columns when the
// hash is unchanged. The result reports whether content changed.
func (e *Engine) insertPrompt(ctx context.Context, tx *sql.Tx, s scanned, prev db.Prompt, now time.Time) (bool, error) {
	p := db.Prompt{
		ID:          uuid.NewString(),
		Title:       s.parsed.Title,
		FilePath:    s.doc.Path,
		ContentHash: s.hash,
		BodyCache:   s.parsed.PlainText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	changed := true
	if prev.ID != "" {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
		if prev.ContentHash == s.hash {
			p.Title, p.BodyCache, p.UpdatedAt = prev.Title, prev.BodyCache, prev.UpdatedAt
			changed = false
		}
	}

	categoryID, err := ensureCategory(ctx, tx, s.parsed.Category)
	if err != nil {
		return false, err
	}
	p.CategoryID = categoryID

	if err := db.InsertPromptTx(ctx, tx, p); err != nil {
		return false, err
	}
	if err := db.SetPromptTagsTx(ctx, tx, p.ID, s.parsed.Tags); err != nil {
		return false, err
	}
	e.logger.Debug("indexed prompt", "path", p.FilePath, "id", p.ID, "changed", changed)
	return changed, nil
}

// updatePrompt rewrites the document-derived columns of a changed prompt.
func (e *Engine) updatePrompt(ctx context.Context, tx *sql.Tx, id string, s scanned, now time.Time) error {
	categoryID, err := ensureCategory(ctx, tx, s.parsed.Category)
	if err != nil {
		return err
	}
	p := db.Prompt{
		ID:          id,
		Title:       s.parsed.Title,
		CategoryID:  categoryID,
		ContentHash: s.hash,
		BodyCache:   s.parsed.PlainText,
		UpdatedAt:   now,
	}
	if err := db.UpdatePromptContentTx(ctx, tx, p); err != nil {
		return err
	}
	if len(s.parsed.Tags) > 0 {
		if err := db.SetPromptTagsTx(ctx, tx, id, s.parsed.Tags); err != nil {
			return err
		}
	}
	e.logger.Debug("updated prompt", "path", s.doc.Path, "id", id)
	return nil
}

func ensureCategory(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return db.EnsureCategoryTx(ctx, tx, name)
}
