package cli

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
)

// resolvePrompt finds a prompt by id, by vault path, or by vault path with
// the markdown extension omitted.
func resolvePrompt(ctx context.Context, engine *index.Engine, ref string) (db.Prompt, error) {
	candidates := []func() (db.Prompt, error){
		func() (db.Prompt, error) { return engine.GetPrompt(ctx, ref) },
		func() (db.Prompt, error) { return engine.GetPromptByPath(ctx, ref) },
	}
	if path.Ext(ref) == "" {
		for _, ext := range cfg.Vault.Extensions {
			candidate := ref + ext
			candidates = append(candidates, func() (db.Prompt, error) { return engine.GetPromptByPath(ctx, candidate) })
		}
	}

	for _, lookup := range candidates {
		prompt, err := lookup()
		if err == nil {
			return prompt, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return db.Prompt{}, err
		}
	}
	return db.Prompt{}, fmt.Errorf("prompt %q: %w", ref, db.ErrNotFound)
}

func promptCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var paths []string
	_ = withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		prompts, err := engine.ListPrompts(ctx, db.PromptFilter{})
		if err != nil {
			return err
		}
		for _, prompt := range prompts {
			if strings.HasPrefix(prompt.FilePath, toComplete) {
				paths = append(paths, prompt.FilePath)
			}
		}
		return nil
	})
	return paths, cobra.ShellCompDirectiveNoFileComp
}

func newFavoriteCommand() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:               "favorite <prompt>",
		Short:             "Mark a prompt as favorite",
		Example:           "  prompthoarder favorite writing/outline.md\n  prompthoarder favorite --off writing/outline",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: promptCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setPromptFlag(cmd, args[0], "favorite", !off, func(ctx context.Context, engine *index.Engine, id string) error {
				return engine.SetFavorite(ctx, id, !off)
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Remove the favorite mark")
	return cmd
}

func newArchiveCommand() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:               "archive <prompt>",
		Short:             "Archive a prompt",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: promptCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setPromptFlag(cmd, args[0], "archived", !off, func(ctx context.Context, engine *index.Engine, id string) error {
				return engine.SetArchived(ctx, id, !off)
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Restore an archived prompt")
	return cmd
}

func setPromptFlag(
	cmd *cobra.Command,
	ref, flag string,
	value bool,
	set func(ctx context.Context, engine *index.Engine, id string) error,
) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		prompt, err := resolvePrompt(ctx, engine, ref)
		if err != nil {
			return err
		}
		if err := set(ctx, engine, prompt.ID); err != nil {
			return err
		}
		if !quiet {
			p.PrintSuccess(fmt.Sprintf("%s %s = %v", p.FormatPath(prompt.FilePath), flag, value))
		}
		return nil
	})
}
