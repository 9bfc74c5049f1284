package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
)

func newRebuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Regenerate the index from the vault",
		Long: `Delete the index and rebuild it from the documents in the vault.

Prompt ids survive a rebuild, but categories, tags, favorites, usage and
workflows that are not declared in front matter are discarded. Use
'prompthoarder export' first to keep them.`,
		Example: `  prompthoarder export -o library.snap && prompthoarder rebuild && prompthoarder import library.snap`,
		Args:    cobra.NoArgs,
		RunE:    runRebuild,
	}
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply vault changes to the index",
		Long: `Re-scan the vault and apply added, changed and removed documents to the
index, keeping all curated state.

A document that was removed from the vault while a workflow still uses it
makes the sync fail; remove the workflow step first.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}
}

func runRebuild(cmd *cobra.Command, args []string) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	engine, err := index.New(index.Options{Path: path, Source: resolveVault(), Logger: log.Default()})
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Rebuild also recovers an index that no longer migrates.
	if err := engine.Initialize(ctx); err != nil {
		log.Warn("existing index unusable, rebuilding from scratch", "path", path, "err", err)
	}

	summary, err := engine.Rebuild(ctx, progressObserver())
	if err != nil {
		return err
	}
	printSummary("Rebuilt", path, summary)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		summary, err := engine.Sync(ctx, progressObserver())
		if db.IsForeignKeyError(err) {
			return fmt.Errorf("%w (a removed document is still a workflow step; remove the step first)", err)
		}
		if err != nil {
			return err
		}
		printSummary("Synced", engine.Path(), summary)
		return nil
	})
}

// progressObserver prints one line per phase. It only formats and writes,
// so it is safe to run on the engine's writer goroutine.
func progressObserver() index.Observer {
	if quiet {
		return nil
	}
	var last index.Phase
	return func(pr index.Progress) {
		if pr.Phase == last {
			if verbose && pr.Phase == index.PhaseIndexingDocuments {
				p.PrintListItem("  indexed", fmt.Sprintf("%d/%d", pr.DocumentsProcessed, pr.DocumentsTotal))
			}
			return
		}
		last = pr.Phase
		if pr.DocumentsTotal > 0 {
			p.PrintInfo(fmt.Sprintf("%s (%d/%d)", pr.Phase, pr.DocumentsProcessed, pr.DocumentsTotal))
			return
		}
		p.PrintInfo(string(pr.Phase))
	}
}

func printSummary(verb, path string, s index.Summary) {
	if quiet {
		return
	}
	p.PrintSuccess(fmt.Sprintf("%s %s", verb, p.FormatPath(path)))
	p.PrintListItem("Scanned", fmt.Sprintf("%d", s.Scanned))
	p.PrintListItem("Added", fmt.Sprintf("%d", s.Added))
	p.PrintListItem("Updated", fmt.Sprintf("%d", s.Updated))
	p.PrintListItem("Unchanged", fmt.Sprintf("%d", s.Unchanged))
	p.PrintListItem("Removed", fmt.Sprintf("%d", s.Removed))
}
