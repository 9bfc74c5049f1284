package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

// NewServer creates a new MCP server exposing the prompt library.
func NewServer(engine *index.Engine, docs vault.Reader, version string) *mcp.Server {
	logger := slog.New(slog.NewJSONHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelInfo},
	))

	server := mcp.NewServer(
		&mcp.Implementation{Name: "prompthoarder", Version: version},
		&mcp.ServerOptions{Logger: logger},
	)

	handlers := NewHandlers(engine, docs)

	mcp.AddTool(server, newTool("search_prompts", "Full-text search over the prompt library, ranked by relevance"),
		func(ctx context.Context, req *mcp.CallToolRequest, input SearchPromptsInput) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: search_prompts", "query", input.Query, "limit", input.Limit)
			return handlers.SearchPromptsHandler(ctx, req, input)
		})

	mcp.AddTool(server, newTool("list_prompts", "List prompts, optionally filtered by category, tag or favorites"),
		func(ctx context.Context, req *mcp.CallToolRequest, input ListPromptsInput) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: list_prompts", "category", input.Category, "tag", input.Tag, "favorites", input.Favorites)
			return handlers.ListPromptsHandler(ctx, req, input)
		})

	mcp.AddTool(server, newTool("get_prompt", "Read a prompt's content and the variables it expects"),
		func(ctx context.Context, req *mcp.CallToolRequest, input GetPromptInput) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: get_prompt", "prompt", input.Prompt)
			return handlers.GetPromptHandler(ctx, req, input)
		})

	mcp.AddTool(server, newTool("resolve_prompt", "Fill in a prompt's variables and return the final text"),
		func(ctx context.Context, req *mcp.CallToolRequest, input ResolvePromptInput) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: resolve_prompt", "prompt", input.Prompt, "variables", len(input.Variables))
			return handlers.ResolvePromptHandler(ctx, req, input)
		})

	mcp.AddTool(server, newTool("list_workflows", "List multi-step prompt workflows"),
		func(ctx context.Context, req *mcp.CallToolRequest, input ListWorkflowsInput) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: list_workflows")
			return handlers.ListWorkflowsHandler(ctx, req, input)
		})

	return server
}

// RunStdio runs the server using the stdio transport.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP runs the server using the streamable HTTP transport until ctx is done.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	f := func(r *http.Request) *mcp.Server { return server }
	handler := mcp.NewStreamableHTTPHandler(f, nil)

	s := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()

	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newTool(n, d string) *mcp.Tool {
	return &mcp.Tool{Name: n, Description: d}
}
