package vault

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestDirDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "beta")
	writeFile(t, root, "a.md", "alpha")
	writeFile(t, root, "writing/essay.markdown", "essay")
	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, ".obsidian/config.md", "hidden dir")
	writeFile(t, root, ".draft.md", "hidden file")

	docs, err := NewDir(root).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}

	var paths []string
	for _, doc := range docs {
		paths = append(paths, doc.Path)
	}
	want := []string{"a.md", "b.md", "writing/essay.markdown"}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if string(docs[0].Content) != "alpha" {
		t.Errorf("content = %q, want alpha", docs[0].Content)
	}
}

func TestDirDocumentsMissingRoot(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "missing")).Documents(context.Background())
	if err == nil {
		t.Fatal("expected error for missing vault")
	}
}

func TestDirDocumentsCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDir(root).Documents(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDirRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "nested/p.md", "hello")
	dir := NewDir(root)

	got, err := dir.Read("nested/p.md")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Read = %q", got)
	}
	if _, err := dir.Read("../outside.md"); err == nil {
		t.Error("expected error for path outside the vault")
	}
}

func TestStaticDocumentsSorted(t *testing.T) {
	src := Static{{Path: "z.md"}, {Path: "a.md"}}
	docs, err := src.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if docs[0].Path != "a.md" || src[0].Path != "z.md" {
		t.Errorf("expected sorted copy, got %v (source %v)", docs, src)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		content   string
		title     string
		category  string
		tags      []string
		plainText string
	}{
		{
			name:      "front matter title wins",
			path:      "review.md",
			content:   "---\ntitle: Code Review\ncategory: Engineering\ntags: [go, review]\n---\n# Heading\n\nCheck {{file}}\n",
			title:     "Code Review",
			category:  "Engineering",
			tags:      []string{"go", "review"},
			plainText: "Heading\nCheck {{file}}",
		},
		{
			name:      "first heading",
			path:      "x.md",
			content:   "intro\n\n## Summarize *text*\n",
			title:     "Summarize text",
			plainText: "intro\nSummarize text",
		},
		{
			name:      "file name fallback",
			path:      "writing/blog-post_outline.md",
			content:   "just a body",
			title:     "Blog Post Outline",
			plainText: "just a body",
		},
		{
			name:      "crlf front matter",
			path:      "c.md",
			content:   "---\r\ncategory: Ops\r\n---\r\nbody\r\n",
			title:     "C",
			category:  "Ops",
			plainText: "body",
		},
		{
			name:      "empty front matter",
			path:      "e.md",
			content:   "---\n---\nbody",
			title:     "E",
			plainText: "body",
		},
		{
			name:      "unterminated fence is body",
			path:      "u.md",
			content:   "---\ntitle: nope\n",
			title:     "U",
			plainText: "title: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(Document{Path: tt.path, Content: []byte(tt.content)})
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if parsed.Title != tt.title {
				t.Errorf("title = %q, want %q", parsed.Title, tt.title)
			}
			if parsed.Category != tt.category {
				t.Errorf("category = %q, want %q", parsed.Category, tt.category)
			}
			if !slices.Equal(parsed.Tags, tt.tags) {
				t.Errorf("tags = %v, want %v", parsed.Tags, tt.tags)
			}
			if !strings.Contains(parsed.PlainText, tt.plainText) {
				t.Errorf("plain text = %q, want it to contain %q", parsed.PlainText, tt.plainText)
			}
		})
	}
}

func TestParseInvalidFrontMatter(t *testing.T) {
	parsed, err := Parse(Document{Path: "notes/bad-header.md", Content: []byte("---\ntags: [unclosed\n---\nbody text")})
	if !errors.Is(err, ErrInvalidFrontMatter) {
		t.Fatalf("err = %v, want ErrInvalidFrontMatter", err)
	}
	if !strings.Contains(err.Error(), "bad-header.md") {
		t.Errorf("error %q should name the file", err)
	}
	if string(parsed.Body) != "body text" {
		t.Errorf("body = %q, want %q", parsed.Body, "body text")
	}
	if parsed.Title != "Bad Header" {
		t.Errorf("title = %q, want %q", parsed.Title, "Bad Header")
	}
	if len(parsed.Tags) != 0 || parsed.Category != "" {
		t.Errorf("front matter should be ignored, got %+v", parsed.FrontMatter)
	}
}

func TestStaticRead(t *testing.T) {
	src := Static{{Path: "a.md", Content: []byte("a")}}

	got, err := src.Read("a.md")
	if err != nil || string(got) != "a" {
		t.Fatalf("Read(a.md) = %q, %v", got, err)
	}
	if _, err := src.Read("missing.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Read(missing.md) err = %v, want fs.ErrNotExist", err)
	}
}
