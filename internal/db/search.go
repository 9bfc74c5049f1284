package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

type SearchResult struct {
	PromptID string
	Title    string
	FilePath string
	Score    float64
}

// Search runs a full-text query over prompt titles and bodies. Results are
// ordered by relevance: BM25 with title matches weighted above body matches.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = SanitizeQuery(query)
	if query == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.title, p.file_path, -bm25(prompts_fts, 5.0, 1.0) AS score
		FROM prompts_fts
		JOIN prompts p ON p.row_seq = prompts_fts.rowid
		WHERE prompts_fts MATCH ?
		ORDER BY score DESC, p.title COLLATE NOCASE
		LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.PromptID, &res.Title, &res.FilePath, &res.Score); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RebuildSearchIndexTx regenerates the full-text projection from the prompts
// table.
func RebuildSearchIndexTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO prompts_fts(prompts_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

// CheckSearchIndex verifies that the full-text projection matches the
// prompts table.
func (s *Store) CheckSearchIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO prompts_fts(prompts_fts, rank) VALUES ('integrity-check', 1)`); err != nil {
		return fmt.Errorf("search index integrity: %w", err)
	}
	return nil
}

func (s *Store) CountSearchEntries(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts_fts`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SanitizeQuery quotes every term that is not a plain FTS5 bareword so user
// input cannot break the MATCH expression. Column filters ("title:foo") and
// already-quoted phrases are kept; operator keywords are matched as words.
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return q
	}
	if isPhrase(q) {
		return q
	}

	terms := strings.Fields(q)
	sanitized := make([]string, 0, len(terms))
	for _, term := range terms {
		if isPhrase(term) {
			sanitized = append(sanitized, term)
			continue
		}

		if column, rest, ok := strings.Cut(term, ":"); ok && rest != "" {
			switch strings.ToLower(column) {
			case "title", "body_cache":
				sanitized = append(sanitized, column+":"+quoteTerm(rest))
				continue
			}
		}

		if !hasTokenChars(term) {
			continue
		}
		sanitized = append(sanitized, quoteTerm(term))
	}

	return strings.Join(sanitized, " ")
}

func isPhrase(s string) bool {
	return len(s) > 1 && strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") &&
		!strings.Contains(s[1:len(s)-1], "\"")
}

func quoteTerm(term string) string {
	if isBareword(term) {
		return term
	}
	return "\"" + strings.ReplaceAll(term, "\"", "\"\"") + "\""
}

// hasTokenChars reports whether the tokenizer would find any word in term.
func hasTokenChars(term string) bool {
	return strings.IndexFunc(term, func(r rune) bool {
		return r >= 0x80 || unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// isBareword reports whether term can appear unquoted in an FTS5 query.
func isBareword(term string) bool {
	switch term {
	case "AND", "OR", "NOT", "NEAR":
		return false
	}
	for _, r := range term {
		switch {
		case r >= 0x80, r == '_', r == 0x1a:
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return term != ""
}
