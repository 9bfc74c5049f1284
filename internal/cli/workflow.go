package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/shared"
	"github.com/stormlightlabs/prompthoarder/internal/template"
)

func newWorkflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Manage multi-step prompt workflows",
		Long: `A workflow is an ordered list of prompts. Each step can carry notes and
variable overrides that take precedence over values given at run time.

Workflows are referenced by id or by title (case-insensitive).`,
	}

	cmd.AddCommand(
		newWorkflowListCommand(),
		newWorkflowCreateCommand(),
		newWorkflowShowCommand(),
		newWorkflowRenameCommand(),
		newWorkflowDeleteCommand(),
		newWorkflowRunCommand(),
		newWorkflowStepCommand(),
	)
	return cmd
}

// resolveWorkflow finds a workflow by id, then by case-insensitive title.
func resolveWorkflow(ctx context.Context, engine *index.Engine, ref string) (db.Workflow, error) {
	w, err := engine.GetWorkflow(ctx, ref)
	if err == nil || !errors.Is(err, db.ErrNotFound) {
		return w, err
	}

	workflows, err := engine.ListWorkflows(ctx)
	if err != nil {
		return db.Workflow{}, err
	}
	var matches []db.Workflow
	for _, candidate := range workflows {
		if strings.EqualFold(candidate.Title, ref) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return db.Workflow{}, fmt.Errorf("workflow %q: %w", ref, db.ErrNotFound)
	case 1:
		return engine.GetWorkflow(ctx, matches[0].ID)
	default:
		return db.Workflow{}, fmt.Errorf("workflow title %q is ambiguous; use the id", ref)
	}
}

// stepAt maps a 1-based position argument to a step.
func stepAt(w db.Workflow, position string) (db.WorkflowStep, error) {
	n, err := strconv.Atoi(position)
	if err != nil || n < 1 || n > len(w.Steps) {
		return db.WorkflowStep{}, fmt.Errorf("workflow %q has no step %s (1-%d)", w.Title, position, len(w.Steps))
	}
	return w.Steps[n-1], nil
}

func newWorkflowListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				workflows, err := engine.ListWorkflows(ctx)
				if err != nil {
					return err
				}
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Title", "Description", "ID", "Updated"})
				for _, w := range workflows {
					t.AppendRow(table.Row{
						w.Title,
						shared.Snippet(w.Description, 50),
						p.Styles.Muted.Render(w.ID),
						w.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				t.SetStyle(table.StyleRounded)
				t.Render()
				return nil
			})
		},
	}
}

func newWorkflowCreateCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:     "create <title>",
		Short:   "Create an empty workflow",
		Example: `  prompthoarder workflow create "Blog post" -d "outline, draft, edit"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := engine.CreateWorkflow(ctx, args[0], description)
				if err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Created workflow %s", w.Title))
					p.PrintListItem("ID", w.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Workflow description")
	return cmd
}

func newWorkflowShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <workflow>",
		Short: "Show a workflow and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}

				p.PrintHeader(w.Title)
				if w.Description != "" {
					fmt.Fprintln(cmd.OutOrStdout(), w.Description)
				}
				p.PrintListItem("ID", w.ID)

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"#", "Prompt", "Notes", "Overrides"})
				for i, step := range w.Steps {
					prompt, err := engine.GetPrompt(ctx, step.PromptID)
					if err != nil {
						return err
					}
					t.AppendRow(table.Row{i + 1, p.FormatPath(prompt.FilePath), step.Notes, formatOverrides(step.VariableOverrides)})
				}
				t.SetStyle(table.StyleRounded)
				t.Render()
				return nil
			})
		},
	}
}

func formatOverrides(overrides map[string]string) string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + overrides[k]
	}
	return strings.Join(parts, " ")
}

func newWorkflowRenameCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <workflow> <title>",
		Short: "Change a workflow's title (and optionally description)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("description") {
					description = w.Description
				}
				if err := engine.UpdateWorkflow(ctx, w.ID, args[1], description); err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Renamed workflow %s → %s", w.Title, args[1]))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newWorkflowDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <workflow>",
		Aliases: []string{"rm"},
		Short:   "Delete a workflow and its steps",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				if err := engine.DeleteWorkflow(ctx, w.ID); err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Deleted workflow %s", w.Title))
				}
				return nil
			})
		},
	}
}

func newWorkflowRunCommand() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Print every step with its variables resolved",
		Long: `Print each step of a workflow in order, resolving variables from --var
values overlaid with the step's own overrides. Each step counts as a use of
its prompt.`,
		Example: `  prompthoarder workflow run "Blog post" --var topic="local-first software"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				values := template.ParseAssignments(vars)
				out := cmd.OutOrStdout()

				for i, step := range w.Steps {
					_, body, err := loadPrompt(ctx, engine, step.PromptID, false)
					if err != nil {
						return fmt.Errorf("step %d: %w", i+1, err)
					}

					p.PrintHeader(fmt.Sprintf("Step %d/%d", i+1, len(w.Steps)))
					if step.Notes != "" {
						fmt.Fprintln(out, p.Styles.Muted.Render(step.Notes))
					}
					resolved := template.ResolveStep(body, values, step.VariableOverrides)
					fmt.Fprintln(out, strings.TrimRight(resolved, "\n"))
					fmt.Fprintln(out)

					if missing := template.Missing(resolved, nil); len(missing) > 0 && !quiet {
						p.PrintWarning(fmt.Sprintf("Step %d unresolved: %s", i+1, strings.Join(missing, ", ")))
					}

					if err := engine.RecordUsage(ctx, step.PromptID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Set a template variable (name=value)")
	return cmd
}

func newWorkflowStepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Add, update or remove workflow steps",
	}

	var (
		notes string
		vars  []string
		at    int
	)

	add := &cobra.Command{
		Use:     "add <workflow> <prompt>",
		Short:   "Append a prompt to a workflow",
		Example: `  prompthoarder workflow step add "Blog post" writing/outline --notes "keep it short" --var tone=casual`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				prompt, err := resolvePrompt(ctx, engine, args[1])
				if err != nil {
					return err
				}
				step, err := engine.AddWorkflowStep(ctx, db.WorkflowStep{
					WorkflowID:        w.ID,
					PromptID:          prompt.ID,
					OrderIndex:        at - 1,
					Notes:             notes,
					VariableOverrides: template.ParseAssignments(vars),
				})
				if err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Added %s to %s at position %d", p.FormatPath(prompt.FilePath), w.Title, step.OrderIndex+1))
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&notes, "notes", "", "Step notes")
	add.Flags().StringArrayVar(&vars, "var", nil, "Variable override (name=value)")
	add.Flags().IntVar(&at, "at", 0, "Order index (1-based; default: append)")

	update := &cobra.Command{
		Use:   "update <workflow> <position>",
		Short: "Change a step's notes or overrides",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				step, err := stepAt(w, args[1])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("notes") {
					step.Notes = notes
				}
				if cmd.Flags().Changed("var") {
					step.VariableOverrides = template.ParseAssignments(vars)
				}
				if err := engine.UpdateWorkflowStep(ctx, step); err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Updated step %s of %s", args[1], w.Title))
				}
				return nil
			})
		},
	}
	update.Flags().StringVar(&notes, "notes", "", "Step notes")
	update.Flags().StringArrayVar(&vars, "var", nil, "Replace the variable overrides (name=value)")

	remove := &cobra.Command{
		Use:     "remove <workflow> <position>",
		Aliases: []string{"rm"},
		Short:   "Remove a step from a workflow",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
				w, err := resolveWorkflow(ctx, engine, args[0])
				if err != nil {
					return err
				}
				step, err := stepAt(w, args[1])
				if err != nil {
					return err
				}
				if err := engine.RemoveWorkflowStep(ctx, step.ID); err != nil {
					return err
				}
				if !quiet {
					p.PrintSuccess(fmt.Sprintf("Removed step %s from %s", args[1], w.Title))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, update, remove)
	return cmd
}
