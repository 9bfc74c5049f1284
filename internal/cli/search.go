package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
)

var (
	searchLimit  int
	searchFormat string
	searchFirst  bool
	searchTitle  bool
)

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search prompts",
		Long: `Search the full-text index for prompts matching the query.

Results are ranked by BM25 relevance with title matches weighted above body
matches. Quoted phrases and column filters (title:word) are passed through.`,
		Example: `  prompthoarder search summarize
  prompthoarder search -l 5 "code review"
  prompthoarder search -f json --title outline`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results (default: search.default_limit)")
	cmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "Output format (table, json, paths)")
	cmd.Flags().BoolVarP(&searchFirst, "first", "1", false, "Return only the top result")
	cmd.Flags().BoolVarP(&searchTitle, "title", "t", false, "Match titles only")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if searchTitle {
		query = "title:" + db.SanitizeQuery(query)
	}

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Search.DefaultLimit
	}
	if searchFirst {
		limit = 1
	}

	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		results, err := engine.Search(ctx, query, limit)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			if !quiet {
				p.PrintError("No results found")
			}
			return nil
		}

		switch searchFormat {
		case "json":
			return outputSearchJSON(cmd, results)
		case "paths":
			for _, res := range results {
				fmt.Fprintln(cmd.OutOrStdout(), res.FilePath)
			}
			return nil
		default:
			return outputSearchTable(cmd, results)
		}
	})
}

func outputSearchTable(cmd *cobra.Command, results []db.SearchResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Title", "Path", "Score (BM25 Relevance)"})

	for _, res := range results {
		t.AppendRow(table.Row{res.Title, p.FormatPath(res.FilePath), fmt.Sprintf("%.4f", res.Score)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

type searchJSON struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, results []db.SearchResult) error {
	out := make([]searchJSON, 0, len(results))
	for _, res := range results {
		out = append(out, searchJSON{ID: res.PromptID, Title: res.Title, Path: res.FilePath, Score: res.Score})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
