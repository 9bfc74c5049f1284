package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Prompt is one indexed prompt document.
type Prompt struct {
	ID          string
	Title       string
	FilePath    string
	CategoryID  string
	IsFavorite  bool
	IsArchived  bool
	ContentHash string
	BodyCache   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UsageCount  int
	LastUsedAt  *time.Time
}

// PromptRef is the change-detection view of a prompt: enough to decide
// whether a scanned document needs re-indexing.
type PromptRef struct {
	ID          string
	ContentHash string
}

// PromptFilter narrows ListPrompts. Nil pointers and empty strings mean
// "no constraint".
type PromptFilter struct {
	Favorite   *bool
	Archived   *bool
	CategoryID string
	TagID      string
	// Recent orders by last use instead of title and drops never-used prompts.
	Recent bool
	Limit  int
}

const promptColumns = `id, title, file_path, category_id, is_favorite, is_archived,
	content_hash, body_cache, created_at, updated_at, usage_count, last_used_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (Prompt, error) {
	var (
		p                    Prompt
		category, lastUsed   sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.FilePath, &category, &p.IsFavorite, &p.IsArchived,
		&p.ContentHash, &p.BodyCache, &createdAt, &updatedAt, &p.UsageCount, &lastUsed,
	); err != nil {
		return Prompt{}, err
	}
	p.CategoryID = category.String

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Prompt{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Prompt{}, err
	}
	if lastUsed.Valid {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return Prompt{}, err
		}
		p.LastUsedAt = &t
	}
	return p, nil
}

// InsertPromptTx inserts a new prompt row. The full-text projection is
// updated by trigger in the same transaction.
func InsertPromptTx(ctx context.Context, tx *sql.Tx, p Prompt) error {
	if p.ContentHash == "" {
		return errors.New("content hash is required")
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO prompts (id, title, file_path, category_id, is_favorite, is_archived,
			content_hash, body_cache, created_at, updated_at, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.FilePath, nullString(p.CategoryID), p.IsFavorite, p.IsArchived,
		p.ContentHash, p.BodyCache, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), p.UsageCount,
	)
	if err != nil {
		return fmt.Errorf("insert prompt %s: %w", p.FilePath, err)
	}
	return nil
}

// UpdatePromptContentTx rewrites the document-derived columns of an existing
// prompt. User state (favorite, archived, usage) is left alone, and an empty
// CategoryID keeps the current category.
func UpdatePromptContentTx(ctx context.Context, tx *sql.Tx, p Prompt) error {
	res, err := tx.ExecContext(
		ctx,
		`UPDATE prompts SET title = ?, category_id = COALESCE(?, category_id), content_hash = ?,
			body_cache = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, nullString(p.CategoryID), p.ContentHash, p.BodyCache, formatTime(p.UpdatedAt), p.ID,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("update prompt %s: %w", p.ID, err)
	}
	return nil
}

// DeletePromptTx removes a prompt. Tag links cascade; workflow steps that
// still reference it make the delete fail.
func DeletePromptTx(ctx context.Context, tx *sql.Tx, id string) error {
	return deletePrompt(ctx, tx, id)
}

func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	return deletePrompt(ctx, s.db, id)
}

func deletePrompt(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("delete prompt %s: %w", id, err)
	}
	return nil
}

// PromptIndexTx maps every indexed file path to its prompt id and hash.
func PromptIndexTx(ctx context.Context, tx *sql.Tx) (map[string]PromptRef, error) {
	rows, err := tx.QueryContext(ctx, `SELECT file_path, id, content_hash FROM prompts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := make(map[string]PromptRef)
	for rows.Next() {
		var path string
		var ref PromptRef
		if err := rows.Scan(&path, &ref.ID, &ref.ContentHash); err != nil {
			return nil, err
		}
		index[path] = ref
	}
	return index, rows.Err()
}

func (s *Store) GetPrompt(ctx context.Context, id string) (Prompt, error) {
	return getPrompt(ctx, s.db, `SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id)
}

func (s *Store) GetPromptByPath(ctx context.Context, path string) (Prompt, error) {
	return getPrompt(ctx, s.db, `SELECT `+promptColumns+` FROM prompts WHERE file_path = ?`, path)
}

func getPrompt(ctx context.Context, q querier, query string, arg any) (Prompt, error) {
	p, err := scanPrompt(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Prompt{}, fmt.Errorf("prompt %v: %w", arg, ErrNotFound)
	}
	return p, err
}

// ListPrompts returns prompts matching filter, ordered by title (or by most
// recent use when filter.Recent is set).
func (s *Store) ListPrompts(ctx context.Context, filter PromptFilter) ([]Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts p`
	var conditions []string
	var args []any

	if filter.TagID != "" {
		query = `SELECT ` + prefixColumns("p.", promptColumns) + ` FROM prompts p
			JOIN prompt_tags pt ON pt.prompt_id = p.id`
		conditions = append(conditions, "pt.tag_id = ?")
		args = append(args, filter.TagID)
	}
	if filter.Favorite != nil {
		conditions = append(conditions, "p.is_favorite = ?")
		args = append(args, *filter.Favorite)
	}
	if filter.Archived != nil {
		conditions = append(conditions, "p.is_archived = ?")
		args = append(args, *filter.Archived)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Recent {
		conditions = append(conditions, "p.last_used_at IS NOT NULL")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.Recent {
		query += " ORDER BY p.last_used_at DESC, p.title COLLATE NOCASE"
	} else {
		query += " ORDER BY p.title COLLATE NOCASE, p.file_path"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func prefixColumns(prefix, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = prefix + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// RecordUsage increments the usage counter and stamps last_used_at.
func (s *Store) RecordUsage(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE prompts SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("record usage %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return setPromptFlag(ctx, s.db, "is_favorite", id, favorite)
}

func (s *Store) SetArchived(ctx context.Context, id string, archived bool) error {
	return setPromptFlag(ctx, s.db, "is_archived", id, archived)
}

func setPromptFlag(ctx context.Context, q querier, column, id string, value bool) error {
	res, err := q.ExecContext(ctx, `UPDATE prompts SET `+column+` = ? WHERE id = ?`, value, id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("set %s on %s: %w", column, id, err)
	}
	return nil
}

// SetPromptCategory assigns a category; an empty categoryID clears it.
func (s *Store) SetPromptCategory(ctx context.Context, id, categoryID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE prompts SET category_id = ? WHERE id = ?`,
		nullString(categoryID), id,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("set category on %s: %w", id, err)
	}
	return nil
}

// RestorePromptStateTx copies user state onto an existing prompt. Used when
// re-importing an exported library after a rebuild.
func RestorePromptStateTx(ctx context.Context, tx *sql.Tx, p Prompt) error {
	var lastUsed sql.NullString
	if p.LastUsedAt != nil {
		lastUsed = sql.NullString{String: formatTime(*p.LastUsedAt), Valid: true}
	}
	res, err := tx.ExecContext(
		ctx,
		`UPDATE prompts SET is_favorite = ?, is_archived = ?, usage_count = ?, last_used_at = ?,
			category_id = COALESCE(?, category_id)
		WHERE id = ?`,
		p.IsFavorite, p.IsArchived, p.UsageCount, lastUsed, nullString(p.CategoryID), p.ID,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("restore prompt %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) CountPrompts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
