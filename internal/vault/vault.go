// Package vault enumerates prompt documents: the authoritative set of
// markdown files the index is derived from.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Document is one source file: its vault-relative slash path and raw bytes.
type Document struct {
	Path    string
	Content []byte
}

// Source enumerates every current document. Implementations must return
// documents in a deterministic order.
type Source interface {
	Documents(ctx context.Context) ([]Document, error)
}

// Reader returns the raw bytes of one document by its vault-relative path.
type Reader interface {
	Read(path string) ([]byte, error)
}

// DefaultExtensions are the file extensions treated as prompt documents.
var DefaultExtensions = []string{".md", ".markdown"}

// Dir is a Source backed by a directory tree.
type Dir struct {
	Root       string
	Extensions []string
}

// NewDir returns a directory source. Empty extensions means DefaultExtensions.
func NewDir(root string, extensions ...string) *Dir {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Dir{Root: root, Extensions: extensions}
}

// Documents walks the vault, skipping hidden files and directories. Paths are
// relative to Root and sorted.
func (d *Dir) Documents(ctx context.Context) ([]Document, error) {
	if d.Root == "" {
		return nil, errors.New("vault root is required")
	}
	info, err := os.Stat(d.Root)
	if err != nil {
		return nil, fmt.Errorf("vault %s: %w", d.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %s is not a directory", d.Root)
	}

	var docs []Document
	err = filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if path != d.Root && strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !d.matches(name) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		docs = append(docs, Document{Path: filepath.ToSlash(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.Path, b.Path) })
	return docs, nil
}

// Read returns the raw bytes of one document by its vault-relative path.
func (d *Dir) Read(path string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("path %q escapes the vault", path)
	}
	return os.ReadFile(filepath.Join(d.Root, clean))
}

func (d *Dir) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range d.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// Static is an in-memory Source, handy for tests and imports.
type Static []Document

func (s Static) Documents(ctx context.Context) ([]Document, error) {
	docs := slices.Clone([]Document(s))
	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.Path, b.Path) })
	return docs, nil
}

func (s Static) Read(path string) ([]byte, error) {
	for _, doc := range s {
		if doc.Path == path {
			return doc.Content, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
}
