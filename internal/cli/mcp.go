package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/mcp"
)

func newMCPCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "mcp", Short: "Model Context Protocol server"}
	cmd.AddCommand(newMCPServeCommand())
	return cmd
}

func newMCPServeCommand() *cobra.Command {
	var stdio bool
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Serve the prompt library to MCP clients: search, list, read and resolve
prompts, and list workflows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdio && httpAddr == "" {
				stdio = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withEngine(cmd, func(_ context.Context, engine *index.Engine) error {
				server := mcp.NewServer(engine, resolveVault(), Version)
				if httpAddr != "" {
					log.Info("starting MCP server", "transport", "http", "addr", httpAddr)
					return mcp.RunHTTP(ctx, server, httpAddr)
				}
				return mcp.RunStdio(ctx, server)
			})
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "Use stdio transport (default)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "Use HTTP transport on the specified address (e.g., :8080)")
	return cmd
}
