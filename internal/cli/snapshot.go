package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/snapshot"
)

func newExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export curated state (categories, tags, favorites, usage, workflows)",
		Long: `Write everything the index holds that cannot be regenerated from the
vault to a compressed snapshot. Prompts are referenced by file path, so the
snapshot can be imported after a rebuild or into another machine's index.`,
		Example: `  prompthoarder export -o library.snap`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}

				snap, err := snapshot.Export(ctx, engine, w, time.Now())
				if err != nil {
					return err
				}
				if output != "" && output != "-" && !quiet {
					p.PrintSuccess(fmt.Sprintf("Exported %s", p.FormatPath(output)))
					p.PrintListItem("Prompts", fmt.Sprintf("%d", len(snap.Prompts)))
					p.PrintListItem("Workflows", fmt.Sprintf("%d", len(snap.Workflows)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Re-apply an exported snapshot",
		Long: `Apply a snapshot written by 'prompthoarder export'. Prompts are matched by
file path; entries whose document is no longer indexed are skipped.
Workflows that already exist are left untouched.`,
		Example: `  prompthoarder import library.snap`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				result, err := snapshot.Import(ctx, engine, r)
				if err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Imported %s", p.FormatPath(args[0])))
					p.PrintListItem("Prompts", fmt.Sprintf("%d (%d skipped)", result.Prompts, result.SkippedPrompts))
					p.PrintListItem("Workflows", fmt.Sprintf("%d (%d skipped)", result.Workflows, result.SkippedWorkflows))
					p.PrintListItem("Steps", fmt.Sprintf("%d (%d skipped)", result.Steps, result.SkippedSteps))
				}
				return nil
			})
		},
	}
}
