package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category groups prompts; names are unique ignoring case.
type Category struct {
	ID   string
	Name string
}

// Tag labels prompts; names are unique ignoring case.
type Tag struct {
	ID   string
	Name string
}

// taxonomy holds the SQL shared by the categories and tags tables, which
// have identical shapes.
type taxonomy struct {
	table string
	kind  string
}

var (
	categories = taxonomy{table: "categories", kind: "category"}
	tags       = taxonomy{table: "tags", kind: "tag"}
)

func (t taxonomy) create(ctx context.Context, q querier, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%s name is required", t.kind)
	}
	id := uuid.NewString()
	if _, err := q.ExecContext(ctx, `INSERT INTO `+t.table+` (id, name) VALUES (?, ?)`, id, name); err != nil {
		return "", fmt.Errorf("create %s %q: %w", t.kind, name, err)
	}
	return id, nil
}

// ensure finds a row by case-insensitive name, creating it on first reference.
func (t taxonomy) ensure(ctx context.Context, q querier, name string) (string, error) {
	var id string
	err := q.QueryRowContext(
		ctx,
		`SELECT id FROM `+t.table+` WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	return t.create(ctx, q, name)
}

func (t taxonomy) rename(ctx context.Context, q querier, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s name is required", t.kind)
	}
	res, err := q.ExecContext(ctx, `UPDATE `+t.table+` SET name = ? WHERE id = ?`, name, id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("rename %s %s: %w", t.kind, id, err)
	}
	return nil
}

func (t taxonomy) delete(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = ?`, id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.kind, id, err)
	}
	return nil
}

func (t taxonomy) find(ctx context.Context, q querier, name string) (string, string, error) {
	var id, stored string
	err := q.QueryRowContext(
		ctx,
		`SELECT id, name FROM `+t.table+` WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	).Scan(&id, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("%s %q: %w", t.kind, name, ErrNotFound)
	}
	return id, stored, err
}

func (t taxonomy) list(ctx context.Context, q querier) ([][2]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM `+t.table+` ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category. A name differing only in case from an
// existing one is rejected by the unique index.
func (s *Store) CreateCategory(ctx context.Context, name string) (Category, error) {
	id, err := categories.create(ctx, s.db, name)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: strings.TrimSpace(name)}, nil
}

func EnsureCategoryTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	return categories.ensure(ctx, tx, name)
}

func (s *Store) RenameCategory(ctx context.Context, id, name string) error {
	return categories.rename(ctx, s.db, id, name)
}

// DeleteCategory fails while any prompt still references the category.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return categories.delete(ctx, s.db, id)
}

func (s *Store) FindCategory(ctx context.Context, name string) (Category, error) {
	id, stored, err := categories.find(ctx, s.db, name)
	return Category{ID: id, Name: stored}, err
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	pairs, err := categories.list(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Category{ID: p[0], Name: p[1]})
	}
	return out, nil
}

func (s *Store) CreateTag(ctx context.Context, name string) (Tag, error) {
	id, err := tags.create(ctx, s.db, name)
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, Name: strings.TrimSpace(name)}, nil
}

func EnsureTagTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	return tags.ensure(ctx, tx, name)
}

func (s *Store) RenameTag(ctx context.Context, id, name string) error {
	return tags.rename(ctx, s.db, id, name)
}

// DeleteTag removes a tag and, by cascade, its prompt associations.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	return tags.delete(ctx, s.db, id)
}

func (s *Store) FindTag(ctx context.Context, name string) (Tag, error) {
	id, stored, err := tags.find(ctx, s.db, name)
	return Tag{ID: id, Name: stored}, err
}

func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	pairs, err := tags.list(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]Tag, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Tag{ID: p[0], Name: p[1]})
	}
	return out, nil
}

func (s *Store) TagPrompt(ctx context.Context, promptID, tagID string) error {
	return tagPrompt(ctx, s.db, promptID, tagID)
}

func TagPromptTx(ctx context.Context, tx *sql.Tx, promptID, tagID string) error {
	return tagPrompt(ctx, tx, promptID, tagID)
}

func tagPrompt(ctx context.Context, q querier, promptID, tagID string) error {
	if _, err := q.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO prompt_tags (prompt_id, tag_id) VALUES (?, ?)`,
		promptID, tagID,
	); err != nil {
		return fmt.Errorf("tag prompt %s: %w", promptID, err)
	}
	return nil
}

func (s *Store) UntagPrompt(ctx context.Context, promptID, tagID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM prompt_tags WHERE prompt_id = ? AND tag_id = ?`,
		promptID, tagID,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("untag prompt %s: %w", promptID, err)
	}
	return nil
}

// SetPromptTagsTx replaces the tag set of a prompt with the named tags,
// creating tags on first reference.
func SetPromptTagsTx(ctx context.Context, tx *sql.Tx, promptID string, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_tags WHERE prompt_id = ?`, promptID); err != nil {
		return fmt.Errorf("clear tags of %s: %w", promptID, err)
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tagID, err := EnsureTagTx(ctx, tx, name)
		if err != nil {
			return err
		}
		if err := TagPromptTx(ctx, tx, promptID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// PromptTags returns the tags attached to a prompt, ordered by name.
func (s *Store) PromptTags(ctx context.Context, promptID string) ([]Tag, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT t.id, t.name FROM tags t
		JOIN prompt_tags pt ON pt.tag_id = t.id
		WHERE pt.prompt_id = ?
		ORDER BY t.name COLLATE NOCASE`,
		promptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
