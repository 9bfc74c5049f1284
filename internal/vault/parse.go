package vault

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/stormlightlabs/prompthoarder/internal/markdown"
	"github.com/stormlightlabs/prompthoarder/internal/shared"
)

// FrontMatter is the optional YAML header of a prompt document.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`
}

// Parsed is a document split into front matter and markdown body, with the
// derived fields the index stores.
type Parsed struct {
	FrontMatter
	// Body is the markdown after the front matter.
	Body []byte
	// PlainText is the body with markdown syntax removed.
	PlainText string
}

// ErrInvalidFrontMatter marks a document whose YAML header could not be
// decoded. Parse still returns the body and a derived title with it.
var ErrInvalidFrontMatter = errors.New("invalid front matter")

var (
	fence        = []byte("---")
	fenceLine    = []byte("---\n")
	closingFence = []byte("\n---")
)

// Parse splits front matter from the body and derives the title: front matter
// title, else the first heading, else a title-cased file name. A header that
// fails to decode yields an ErrInvalidFrontMatter error together with a
// Parsed that ignores the header.
func Parse(doc Document) (Parsed, error) {
	content := []byte(shared.NormalizeLineEndings(string(doc.Content)))

	var parsed Parsed
	var headerErr error
	header, body, ok := splitFrontMatter(content)
	if ok && len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &parsed.FrontMatter); err != nil {
			parsed.FrontMatter = FrontMatter{}
			headerErr = fmt.Errorf("front matter of %s: %w: %w", doc.Path, ErrInvalidFrontMatter, err)
		}
	}
	parsed.Body = body
	parsed.PlainText = markdown.PlainText(body)

	parsed.Title = strings.TrimSpace(parsed.Title)
	if parsed.Title == "" {
		parsed.Title = markdown.FirstHeading(body)
	}
	if parsed.Title == "" {
		parsed.Title = TitleFromPath(doc.Path)
	}
	parsed.Category = strings.TrimSpace(parsed.Category)
	return parsed, headerErr
}

// TitleFromPath turns "writing/blog-post_outline.md" into "Blog Post Outline".
func TitleFromPath(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return shared.Capitalize(strings.Join(strings.Fields(base), " "))
}

func splitFrontMatter(content []byte) (header, body []byte, ok bool) {
	if !bytes.HasPrefix(content, fenceLine) {
		return nil, content, false
	}
	rest := content[len(fence)+1:]
	if bytes.HasPrefix(rest, fenceLine) || bytes.Equal(rest, fence) {
		return nil, trimFenceLine(rest), true
	}
	end := bytes.Index(rest, closingFence)
	if end < 0 {
		return nil, content, false
	}
	header = rest[:end+1]
	return header, trimFenceLine(rest[end+1:]), true
}

// trimFenceLine drops the closing "---" line.
func trimFenceLine(b []byte) []byte {
	b = bytes.TrimPrefix(b, fence)
	if i := bytes.IndexByte(b, '\n'); i >= 0 && len(bytes.TrimSpace(b[:i])) == 0 {
		return b[i+1:]
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return b
}
