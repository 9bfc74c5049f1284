package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/markdown"
	"github.com/stormlightlabs/prompthoarder/internal/template"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

var (
	showRender  bool
	showRaw     bool
	showWidth   int
	showSection string
	showVars    []string
	showPager   bool
	showNoPager bool
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <prompt>",
		Short: "Display a prompt",
		Long: `Display a prompt by id or vault path.

The extension may be omitted from the path. Variables given with --var are
substituted; any placeholder left unresolved is listed after the prompt.`,
		Example: `  prompthoarder show writing/outline
  prompthoarder show -r writing/outline.md
  prompthoarder show --var audience=engineers --var text="..." writing/summarize
  prompthoarder show -s "Examples" writing/outline`,
		Args:              cobra.ExactArgs(1),
		RunE:              runShow,
		ValidArgsFunction: promptCompletion,
	}

	cmd.Flags().BoolVarP(&showRender, "render", "r", false, "Render markdown with glamour")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "Print the file verbatim, front matter included")
	cmd.Flags().IntVarP(&showWidth, "width", "w", 0, "Render width (default: display.width)")
	cmd.Flags().StringVarP(&showSection, "section", "s", "", "Show only the section under a matching heading")
	cmd.Flags().StringArrayVar(&showVars, "var", nil, "Set a template variable (name=value)")
	cmd.Flags().BoolVarP(&showPager, "pager", "P", false, "Enable pager")
	cmd.Flags().BoolVarP(&showNoPager, "no-pager", "p", false, "Disable pager")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		prompt, body, err := loadPrompt(ctx, engine, args[0], showRaw)
		if err != nil {
			return err
		}

		if showSection != "" {
			section, err := extractSection(body, showSection)
			if err != nil {
				return fmt.Errorf("%s: %w", prompt.FilePath, err)
			}
			body = section
		}

		values := template.ParseAssignments(showVars)
		if len(values) > 0 {
			body = template.Resolve(body, values)
		}

		output, err := formatBody(body)
		if err != nil {
			return err
		}

		if shouldUsePager(len(output)) {
			if err := pageOutput(cmd, []byte(output)); err != nil {
				return err
			}
		} else if _, err := fmt.Fprint(cmd.OutOrStdout(), output); err != nil {
			return err
		}

		if missing := template.Missing(body, values); len(missing) > 0 && !quiet {
			names := make([]string, len(missing))
			for i, name := range missing {
				names[i] = p.FormatVariable(name)
			}
			p.PrintWarning("Unresolved: " + strings.Join(names, ", "))
		}
		return nil
	})
}

// loadPrompt resolves ref and reads the prompt's document from the vault.
// Unless raw is set the front matter is stripped.
func loadPrompt(ctx context.Context, engine *index.Engine, ref string, raw bool) (db.Prompt, string, error) {
	prompt, err := resolvePrompt(ctx, engine, ref)
	if err != nil {
		return db.Prompt{}, "", err
	}

	content, err := resolveVault().Read(prompt.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return prompt, "", fmt.Errorf("%s is indexed but missing from the vault (run `prompthoarder sync`)", prompt.FilePath)
	}
	if err != nil {
		return prompt, "", err
	}
	if raw {
		return prompt, string(content), nil
	}

	parsed, err := vault.Parse(vault.Document{Path: prompt.FilePath, Content: content})
	if err != nil && !errors.Is(err, vault.ErrInvalidFrontMatter) {
		return prompt, "", err
	}
	return prompt, string(parsed.Body), nil
}

func formatBody(body string) (string, error) {
	if !showRender && !cfg.Display.RenderMarkdown {
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		return body, nil
	}
	width := showWidth
	if width <= 0 {
		width = cfg.Display.Width
	}
	return markdown.Render([]byte(body), width)
}

func shouldUsePager(contentSize int) bool {
	if showNoPager {
		return false
	}
	if showPager {
		return true
	}
	if !isTerminal() {
		return false
	}
	return contentSize > 4096
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func pageOutput(cmd *cobra.Command, data []byte) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	fields := strings.Fields(pager)
	pagerCmd := exec.Command(fields[0], fields[1:]...)
	pagerCmd.Stdout = cmd.OutOrStdout()
	pagerCmd.Stderr = cmd.ErrOrStderr()

	stdin, err := pagerCmd.StdinPipe()
	if err != nil {
		return err
	}

	if err := pagerCmd.Start(); err != nil {
		return err
	}

	if _, err := stdin.Write(data); err != nil {
		_ = stdin.Close()
		_ = pagerCmd.Wait()
		return err
	}
	_ = stdin.Close()

	return pagerCmd.Wait()
}

// extractSection returns the first heading containing query (case-insensitive)
// and everything up to the next heading of the same or higher level.
func extractSection(body, query string) (string, error) {
	lines := strings.Split(body, "\n")
	needle := strings.ToLower(query)

	start, level := -1, 0
	for i, line := range lines {
		if lvl := headingLevel(line); lvl > 0 && strings.Contains(strings.ToLower(line[lvl:]), needle) {
			start, level = i, lvl
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("no matching heading found for %q", query)
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if lvl := headingLevel(lines[i]); lvl > 0 && lvl <= level {
			end = i
			break
		}
	}

	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n") + "\n", nil
}

func headingLevel(line string) int {
	count := 0
	for count < len(line) && line[count] == '#' {
		count++
	}
	if count == 0 || count > 6 || count >= len(line) || line[count] != ' ' {
		return 0
	}
	return count
}
