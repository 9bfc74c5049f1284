package mcp

import "github.com/stormlightlabs/prompthoarder/internal/db"

// SearchPromptsInput defines the input schema for the search_prompts tool.
type SearchPromptsInput struct {
	Query string `json:"query" jsonschema:"Full-text query over prompt titles and bodies"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

// SearchPromptsOutput defines the output schema for the search_prompts tool.
type SearchPromptsOutput struct {
	Results []PromptHit `json:"results"`
	Total   int         `json:"total"`
}

// PromptHit is one ranked search result.
type PromptHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// ListPromptsInput defines the input schema for the list_prompts tool.
type ListPromptsInput struct {
	Category  string `json:"category,omitempty" jsonschema:"Only prompts in this category"`
	Tag       string `json:"tag,omitempty" jsonschema:"Only prompts with this tag"`
	Favorites bool   `json:"favorites,omitempty" jsonschema:"Only favorite prompts"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of prompts"`
}

// ListPromptsOutput defines the output schema for the list_prompts tool.
type ListPromptsOutput struct {
	Prompts []PromptSummary `json:"prompts"`
	Total   int             `json:"total"`
}

// PromptSummary describes a prompt without its content.
type PromptSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Favorite   bool   `json:"favorite,omitempty"`
	UsageCount int    `json:"usage_count"`
	Snippet    string `json:"snippet,omitempty"`
}

// GetPromptInput defines the input schema for the get_prompt tool.
type GetPromptInput struct {
	Prompt string `json:"prompt" jsonschema:"Prompt id or vault path (extension optional)"`
}

// GetPromptOutput defines the output schema for the get_prompt tool.
type GetPromptOutput struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Path      string   `json:"path"`
	Tags      []string `json:"tags,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Content   string   `json:"content"`
}

// ResolvePromptInput defines the input schema for the resolve_prompt tool.
type ResolvePromptInput struct {
	Prompt    string            `json:"prompt" jsonschema:"Prompt id or vault path (extension optional)"`
	Variables map[string]string `json:"variables,omitempty" jsonschema:"Values for the prompt's {{variables}}"`
}

// ResolvePromptOutput defines the output schema for the resolve_prompt tool.
type ResolvePromptOutput struct {
	Content string   `json:"content"`
	Missing []string `json:"missing,omitempty"`
}

// ListWorkflowsInput defines the (empty) input schema for the list_workflows tool.
type ListWorkflowsInput struct{}

// ListWorkflowsOutput defines the output schema for the list_workflows tool.
type ListWorkflowsOutput struct {
	Workflows []WorkflowSummary `json:"workflows"`
}

// WorkflowSummary describes a workflow and the paths of its steps in order.
type WorkflowSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps"`
}

func NewPromptSummary(p db.Prompt) PromptSummary {
	return PromptSummary{
		ID:         p.ID,
		Title:      p.Title,
		Path:       p.FilePath,
		Favorite:   p.IsFavorite,
		UsageCount: p.UsageCount,
	}
}
