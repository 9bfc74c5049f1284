package mcp

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/shared"
	"github.com/stormlightlabs/prompthoarder/internal/template"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

const defaultLimit = 20

type Handlers struct {
	engine *index.Engine
	docs   vault.Reader
}

func NewHandlers(engine *index.Engine, docs vault.Reader) *Handlers {
	return &Handlers{engine: engine, docs: docs}
}

func (h *Handlers) SearchPromptsHandler(ctx context.Context, req *mcp.CallToolRequest, input SearchPromptsInput) (*mcp.CallToolResult, any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	results, err := h.engine.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, nil, err
	}

	hits := make([]PromptHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, PromptHit{ID: r.PromptID, Title: r.Title, Path: r.FilePath, Score: r.Score})
	}
	return nil, SearchPromptsOutput{Results: hits, Total: len(hits)}, nil
}

func (h *Handlers) ListPromptsHandler(ctx context.Context, req *mcp.CallToolRequest, input ListPromptsInput) (*mcp.CallToolResult, any, error) {
	filter := db.PromptFilter{Archived: shared.BoolPtr(false), Limit: input.Limit}
	if input.Favorites {
		filter.Favorite = shared.BoolPtr(true)
	}
	if input.Category != "" {
		c, err := h.engine.FindCategory(ctx, input.Category)
		if err != nil {
			return nil, nil, err
		}
		filter.CategoryID = c.ID
	}
	if input.Tag != "" {
		t, err := h.engine.FindTag(ctx, input.Tag)
		if err != nil {
			return nil, nil, err
		}
		filter.TagID = t.ID
	}

	prompts, err := h.engine.ListPrompts(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	out := ListPromptsOutput{Prompts: make([]PromptSummary, 0, len(prompts)), Total: len(prompts)}
	for _, p := range prompts {
		summary := NewPromptSummary(p)
		summary.Snippet = shared.Snippet(p.BodyCache, 120)
		out.Prompts = append(out.Prompts, summary)
	}
	return nil, out, nil
}

func (h *Handlers) GetPromptHandler(ctx context.Context, req *mcp.CallToolRequest, input GetPromptInput) (*mcp.CallToolResult, any, error) {
	prompt, body, err := h.load(ctx, input.Prompt)
	if err != nil {
		return nil, nil, err
	}
	tags, err := h.engine.PromptTags(ctx, prompt.ID)
	if err != nil {
		return nil, nil, err
	}

	out := GetPromptOutput{
		ID:        prompt.ID,
		Title:     prompt.Title,
		Path:      prompt.FilePath,
		Variables: template.Variables(body),
		Content:   body,
	}
	for _, t := range tags {
		out.Tags = append(out.Tags, t.Name)
	}
	return nil, out, nil
}

// ResolvePromptHandler substitutes variables and records the use.
func (h *Handlers) ResolvePromptHandler(ctx context.Context, req *mcp.CallToolRequest, input ResolvePromptInput) (*mcp.CallToolResult, any, error) {
	prompt, body, err := h.load(ctx, input.Prompt)
	if err != nil {
		return nil, nil, err
	}
	out := ResolvePromptOutput{
		Content: template.Resolve(body, input.Variables),
		Missing: template.Missing(body, input.Variables),
	}
	if err := h.engine.RecordUsage(ctx, prompt.ID); err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func (h *Handlers) ListWorkflowsHandler(ctx context.Context, req *mcp.CallToolRequest, input ListWorkflowsInput) (*mcp.CallToolResult, any, error) {
	workflows, err := h.engine.ListWorkflows(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := ListWorkflowsOutput{Workflows: make([]WorkflowSummary, 0, len(workflows))}
	for _, w := range workflows {
		full, err := h.engine.GetWorkflow(ctx, w.ID)
		if err != nil {
			return nil, nil, err
		}
		summary := WorkflowSummary{ID: w.ID, Title: w.Title, Description: w.Description, Steps: []string{}}
		for _, step := range full.Steps {
			prompt, err := h.engine.GetPrompt(ctx, step.PromptID)
			if err != nil {
				return nil, nil, err
			}
			summary.Steps = append(summary.Steps, prompt.FilePath)
		}
		out.Workflows = append(out.Workflows, summary)
	}
	return nil, out, nil
}

// load finds a prompt by id or path and returns its body without front matter.
func (h *Handlers) load(ctx context.Context, ref string) (db.Prompt, string, error) {
	prompt, err := h.find(ctx, ref)
	if err != nil {
		return db.Prompt{}, "", err
	}
	content, err := h.docs.Read(prompt.FilePath)
	if err != nil {
		return db.Prompt{}, "", fmt.Errorf("read %s: %w", prompt.FilePath, err)
	}
	parsed, err := vault.Parse(vault.Document{Path: prompt.FilePath, Content: content})
	if err != nil && !errors.Is(err, vault.ErrInvalidFrontMatter) {
		return db.Prompt{}, "", err
	}
	return prompt, string(parsed.Body), nil
}

func (h *Handlers) find(ctx context.Context, ref string) (db.Prompt, error) {
	refs := []string{ref}
	if path.Ext(ref) == "" {
		for _, ext := range vault.DefaultExtensions {
			refs = append(refs, ref+ext)
		}
	}

	prompt, err := h.engine.GetPrompt(ctx, ref)
	if !errors.Is(err, db.ErrNotFound) {
		return prompt, err
	}
	for _, candidate := range refs {
		prompt, err = h.engine.GetPromptByPath(ctx, candidate)
		if !errors.Is(err, db.ErrNotFound) {
			return prompt, err
		}
	}
	return db.Prompt{}, fmt.Errorf("prompt %q: %w", ref, db.ErrNotFound)
}
