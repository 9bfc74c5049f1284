package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/template"
)

var (
	useVars   []string
	useCopy   bool
	useStrict bool
)

func newUseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <prompt>",
		Short: "Fill in a prompt and record its use",
		Long: `Resolve a prompt's variables, print the result (or copy it to the
clipboard) and count the use towards the prompt's usage statistics.`,
		Example: `  prompthoarder use writing/summarize --var audience=executives --var text="..."
  prompthoarder use -c code/review`,
		Args:              cobra.ExactArgs(1),
		RunE:              runUse,
		ValidArgsFunction: promptCompletion,
	}

	cmd.Flags().StringArrayVar(&useVars, "var", nil, "Set a template variable (name=value)")
	cmd.Flags().BoolVarP(&useCopy, "copy", "c", false, "Copy the result to the clipboard")
	cmd.Flags().BoolVar(&useStrict, "strict", false, "Fail when a variable is left unresolved")
	return cmd
}

func runUse(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		prompt, body, err := loadPrompt(ctx, engine, args[0], false)
		if err != nil {
			return err
		}

		values := template.ParseAssignments(useVars)
		missing := template.Missing(body, values)
		if useStrict && len(missing) > 0 {
			return fmt.Errorf("%s: unresolved variables: %s", prompt.FilePath, strings.Join(missing, ", "))
		}
		resolved := template.Resolve(body, values)

		if useCopy {
			if err := clipboard.WriteAll(resolved); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			if !quiet {
				p.PrintSuccess(fmt.Sprintf("Copied %s", p.FormatPath(prompt.FilePath)))
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), resolved)
			if !strings.HasSuffix(resolved, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
		}

		if len(missing) > 0 && !quiet {
			names := make([]string, len(missing))
			for i, name := range missing {
				names[i] = p.FormatVariable(name)
			}
			p.PrintWarning("Unresolved: " + strings.Join(names, ", "))
		}

		return engine.RecordUsage(ctx, prompt.ID)
	})
}
