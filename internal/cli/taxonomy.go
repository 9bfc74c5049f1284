package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/shared"
)

// label is one category or tag as the taxonomy commands see it.
type label struct {
	ID   string
	Name string
}

// taxonomyOps binds the generic taxonomy subcommands to categories or tags.
type taxonomyOps struct {
	kind   string
	list   func(ctx context.Context, e *index.Engine) ([]label, error)
	find   func(ctx context.Context, e *index.Engine, name string) (label, error)
	create func(ctx context.Context, e *index.Engine, name string) (label, error)
	rename func(ctx context.Context, e *index.Engine, id, name string) error
	delete func(ctx context.Context, e *index.Engine, id string) error
	count  func(ctx context.Context, e *index.Engine, id string) (int, error)
}

var categoryOps = taxonomyOps{
	kind: "category",
	list: func(ctx context.Context, e *index.Engine) ([]label, error) {
		categories, err := e.ListCategories(ctx)
		out := make([]label, len(categories))
		for i, c := range categories {
			out[i] = label(c)
		}
		return out, err
	},
	find: func(ctx context.Context, e *index.Engine, name string) (label, error) {
		c, err := e.FindCategory(ctx, name)
		return label(c), err
	},
	create: func(ctx context.Context, e *index.Engine, name string) (label, error) {
		c, err := e.CreateCategory(ctx, name)
		return label(c), err
	},
	rename: func(ctx context.Context, e *index.Engine, id, name string) error { return e.RenameCategory(ctx, id, name) },
	delete: func(ctx context.Context, e *index.Engine, id string) error { return e.DeleteCategory(ctx, id) },
	count: func(ctx context.Context, e *index.Engine, id string) (int, error) {
		prompts, err := e.ListPrompts(ctx, db.PromptFilter{CategoryID: id})
		return len(prompts), err
	},
}

var tagOps = taxonomyOps{
	kind: "tag",
	list: func(ctx context.Context, e *index.Engine) ([]label, error) {
		tags, err := e.ListTags(ctx)
		out := make([]label, len(tags))
		for i, t := range tags {
			out[i] = label(t)
		}
		return out, err
	},
	find: func(ctx context.Context, e *index.Engine, name string) (label, error) {
		t, err := e.FindTag(ctx, name)
		return label(t), err
	},
	create: func(ctx context.Context, e *index.Engine, name string) (label, error) {
		t, err := e.CreateTag(ctx, name)
		return label(t), err
	},
	rename: func(ctx context.Context, e *index.Engine, id, name string) error { return e.RenameTag(ctx, id, name) },
	delete: func(ctx context.Context, e *index.Engine, id string) error { return e.DeleteTag(ctx, id) },
	count: func(ctx context.Context, e *index.Engine, id string) (int, error) {
		prompts, err := e.ListPrompts(ctx, db.PromptFilter{TagID: id})
		return len(prompts), err
	},
}

// findOrCreate looks a label up by name, creating it when missing.
func (ops taxonomyOps) findOrCreate(ctx context.Context, e *index.Engine, name string) (label, error) {
	t, err := ops.find(ctx, e, name)
	if errors.Is(err, db.ErrNotFound) {
		return ops.create(ctx, e, name)
	}
	return t, err
}

func newCategoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage categories",
		Long: `Manage prompt categories. Names are unique ignoring case.

Deleting a category leaves its prompts uncategorized.`,
	}
	cmd.AddCommand(taxonomyCommands(categoryOps)...)
	cmd.AddCommand(&cobra.Command{
		Use:               "assign <prompt> [category]",
		Short:             "Set a prompt's category (omit the category to clear it)",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: promptCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				prompt, err := resolvePrompt(ctx, engine, args[0])
				if err != nil {
					return err
				}
				var category label
				if len(args) == 2 {
					if category, err = categoryOps.findOrCreate(ctx, engine, args[1]); err != nil {
						return err
					}
				}
				if err := engine.SetPromptCategory(ctx, prompt.ID, category.ID); err != nil {
					return err
				}
				if !quiet {
					if category.ID == "" {
						p.PrintSuccess(fmt.Sprintf("Cleared category of %s", p.FormatPath(prompt.FilePath)))
					} else {
						p.PrintSuccess(fmt.Sprintf("%s → %s", p.FormatPath(prompt.FilePath), category.Name))
					}
				}
				return nil
			})
		},
	})
	return cmd
}

func newTagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
		Long:    `Manage prompt tags. Names are unique ignoring case.`,
	}
	cmd.AddCommand(taxonomyCommands(tagOps)...)
	cmd.AddCommand(
		&cobra.Command{
			Use:               "add <prompt> <tag>...",
			Short:             "Attach tags to a prompt, creating them as needed",
			Args:              cobra.MinimumNArgs(2),
			ValidArgsFunction: promptCompletion,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
					prompt, err := resolvePrompt(ctx, engine, args[0])
					if err != nil {
						return err
					}
					for _, name := range args[1:] {
						tag, err := tagOps.findOrCreate(ctx, engine, name)
						if err != nil {
							return err
						}
						if err := engine.TagPrompt(ctx, prompt.ID, tag.ID); err != nil {
							return err
						}
						if !quiet {
							p.PrintSuccess(fmt.Sprintf("%s +%s", p.FormatPath(prompt.FilePath), tag.Name))
						}
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:               "remove <prompt> <tag>...",
			Short:             "Detach tags from a prompt",
			Args:              cobra.MinimumNArgs(2),
			ValidArgsFunction: promptCompletion,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
					prompt, err := resolvePrompt(ctx, engine, args[0])
					if err != nil {
						return err
					}
					for _, name := range args[1:] {
						tag, err := tagOps.find(ctx, engine, name)
						if err != nil {
							return err
						}
						if err := engine.UntagPrompt(ctx, prompt.ID, tag.ID); err != nil {
							return err
						}
						if !quiet {
							p.PrintSuccess(fmt.Sprintf("%s -%s", p.FormatPath(prompt.FilePath), tag.Name))
						}
					}
					return nil
				})
			},
		},
	)
	return cmd
}

// taxonomyCommands builds the list/create/rename/delete subcommands shared
// by categories and tags.
func taxonomyCommands(ops taxonomyOps) []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List every %s with its prompt count", ops.kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				terms, err := ops.list(ctx, engine)
				if err != nil {
					return err
				}
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{shared.Capitalize(ops.kind), "Prompts"})
				for _, item := range terms {
					n, err := ops.count(ctx, engine, item.ID)
					if err != nil {
						return err
					}
					t.AppendRow(table.Row{item.Name, n})
				}
				t.SetStyle(table.StyleRounded)
				t.Render()
				return nil
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Create a %s", ops.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				created, err := ops.create(ctx, engine, args[0])
				if db.IsUniqueError(err) {
					return fmt.Errorf("%s %q already exists", ops.kind, args[0])
				}
				if err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Created %s %s", ops.kind, created.Name))
				}
				return nil
			})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: fmt.Sprintf("Rename a %s", ops.kind),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				existing, err := ops.find(ctx, engine, args[0])
				if err != nil {
					return err
				}
				err = ops.rename(ctx, engine, existing.ID, args[1])
				if db.IsUniqueError(err) {
					return fmt.Errorf("%s %q already exists", ops.kind, args[1])
				}
				if err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Renamed %s %s → %s", ops.kind, existing.Name, args[1]))
				}
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete a %s", ops.kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				existing, err := ops.find(ctx, engine, args[0])
				if err != nil {
					return err
				}
				if err := ops.delete(ctx, engine, existing.ID); err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Deleted %s %s", ops.kind, existing.Name))
				}
				return nil
			})
		},
	}

	return []*cobra.Command{listCmd, createCmd, renameCmd, deleteCmd}
}
