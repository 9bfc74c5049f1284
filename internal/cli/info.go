package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/index"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [prompt]",
		Short: "Show index statistics or a prompt's metadata",
		Long: `Without arguments, display the location, state and size of the index.
With a prompt, display its metadata: id, category, tags, usage and hash.`,
		Example: `  prompthoarder info
  prompthoarder info writing/outline`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runInfo,
		ValidArgsFunction: promptCompletion,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		if len(args) == 1 {
			return printPromptInfo(ctx, engine, args[0])
		}

		stats, err := engine.Stats(ctx)
		if err != nil {
			return err
		}

		p.PrintListItem("Index", p.FormatPath(stats.Path))
		p.PrintListItem("Vault", p.FormatPath(resolveVault().Root))
		p.PrintListItem("State", stats.State.String())
		p.PrintListItem("Size", fmt.Sprintf("%d bytes", stats.SizeBytes))
		p.PrintListItem("Journal", stats.JournalMode)
		p.PrintListItem("Migrations", strings.Join(stats.Migrations, ", "))
		p.PrintListItem("Prompts", fmt.Sprintf("%d (%d searchable)", stats.Prompts, stats.SearchEntries))
		p.PrintListItem("Categories", fmt.Sprintf("%d", stats.Categories))
		p.PrintListItem("Tags", fmt.Sprintf("%d", stats.Tags))
		p.PrintListItem("Workflows", fmt.Sprintf("%d", stats.Workflows))
		return nil
	})
}

func printPromptInfo(ctx context.Context, engine *index.Engine, ref string) error {
	prompt, err := resolvePrompt(ctx, engine, ref)
	if err != nil {
		return err
	}
	tags, err := engine.PromptTags(ctx, prompt.ID)
	if err != nil {
		return err
	}
	categories, err := categoryNames(ctx, engine)
	if err != nil {
		return err
	}

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	lastUsed := "never"
	if prompt.LastUsedAt != nil {
		lastUsed = prompt.LastUsedAt.Local().Format("2006-01-02 15:04:05")
	}

	p.PrintHeader(prompt.Title)
	p.PrintListItem("ID", prompt.ID)
	p.PrintListItem("Path", p.FormatPath(prompt.FilePath))
	p.PrintListItem("Category", categories[prompt.CategoryID])
	p.PrintListItem("Tags", strings.Join(names, ", "))
	p.PrintListItem("Favorite", fmt.Sprintf("%v", prompt.IsFavorite))
	p.PrintListItem("Archived", fmt.Sprintf("%v", prompt.IsArchived))
	p.PrintListItem("Uses", fmt.Sprintf("%d (last: %s)", prompt.UsageCount, lastUsed))
	p.PrintListItem("Created", prompt.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	p.PrintListItem("Updated", prompt.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	p.PrintListItem("Hash", prompt.ContentHash)
	return nil
}
