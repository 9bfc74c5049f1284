package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/db"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/shared"
)

var (
	listFavorites bool
	listArchived  bool
	listAll       bool
	listCategory  string
	listTag       string
	listRecent    bool
	listLimit     int
	listTree      bool
	listCount     bool
	listPaths     bool
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List prompts in the library",
		Long: `List indexed prompts, optionally filtered by path prefix, category, tag,
favorite or archived state.

Archived prompts are hidden unless --archived or --all is given.`,
		Example: `  prompthoarder list
  prompthoarder list writing/
  prompthoarder list --favorites --category Writing
  prompthoarder list --recent -n 10
  prompthoarder list --tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: runList,
	}

	cmd.Flags().BoolVarP(&listFavorites, "favorites", "f", false, "Only favorites")
	cmd.Flags().BoolVar(&listArchived, "archived", false, "Only archived prompts")
	cmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include archived prompts")
	cmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category name")
	cmd.Flags().StringVarP(&listTag, "tag", "t", "", "Filter by tag name")
	cmd.Flags().BoolVar(&listRecent, "recent", false, "Most recently used first")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of prompts")
	cmd.Flags().BoolVar(&listTree, "tree", false, "Display as tree structure")
	cmd.Flags().BoolVar(&listCount, "count", false, "Show only count of prompts")
	cmd.Flags().BoolVar(&listPaths, "paths", false, "Print bare paths")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		filter, err := buildFilter(ctx, engine)
		if err != nil {
			return err
		}

		prompts, err := engine.ListPrompts(ctx, filter)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			prompts = filterPrefix(prompts, args[0])
		}

		out := cmd.OutOrStdout()
		switch {
		case listCount:
			fmt.Fprintf(out, "%d\n", len(prompts))
		case listTree:
			printTree(out, prompts)
		case listPaths:
			for _, prompt := range prompts {
				fmt.Fprintln(out, prompt.FilePath)
			}
		default:
			return printPromptTable(ctx, engine, out, prompts)
		}
		return nil
	})
}

func buildFilter(ctx context.Context, engine *index.Engine) (db.PromptFilter, error) {
	filter := db.PromptFilter{Recent: listRecent, Limit: listLimit}
	if listFavorites {
		filter.Favorite = shared.BoolPtr(true)
	}
	switch {
	case listArchived:
		filter.Archived = shared.BoolPtr(true)
	case !listAll:
		filter.Archived = shared.BoolPtr(false)
	}

	if listCategory != "" {
		category, err := engine.FindCategory(ctx, listCategory)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = category.ID
	}
	if listTag != "" {
		tag, err := engine.FindTag(ctx, listTag)
		if err != nil {
			return filter, err
		}
		filter.TagID = tag.ID
	}
	return filter, nil
}

func filterPrefix(prompts []db.Prompt, prefix string) []db.Prompt {
	var filtered []db.Prompt
	for _, prompt := range prompts {
		if strings.HasPrefix(prompt.FilePath, prefix) {
			filtered = append(filtered, prompt)
		}
	}
	return filtered
}

func printPromptTable(ctx context.Context, engine *index.Engine, out io.Writer, prompts []db.Prompt) error {
	categories, err := categoryNames(ctx, engine)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"", "Title", "Path", "Category", "Uses", "Last Used"})

	for _, prompt := range prompts {
		lastUsed := ""
		if prompt.LastUsedAt != nil {
			lastUsed = prompt.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{
			p.FormatFlags(prompt.IsFavorite, prompt.IsArchived),
			shared.TruncateText(prompt.Title, 40),
			p.FormatPath(prompt.FilePath),
			categories[prompt.CategoryID],
			prompt.UsageCount,
			lastUsed,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func categoryNames(ctx context.Context, engine *index.Engine) (map[string]string, error) {
	categories, err := engine.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func printTree(w io.Writer, prompts []db.Prompt) {
	root := &treeNode{children: map[string]*treeNode{}}
	for _, prompt := range prompts {
		current := root
		for _, part := range strings.Split(prompt.FilePath, "/") {
			if part == "" {
				continue
			}
			child, ok := current.children[part]
			if !ok {
				child = &treeNode{name: part, children: map[string]*treeNode{}}
				current.children[part] = child
			}
			current = child
		}
	}

	l := list.NewWriter()
	l.SetOutputMirror(w)
	l.SetStyle(list.StyleConnectedRounded)
	appendNodes(l, root)
	l.Render()
}

func appendNodes(l list.Writer, node *treeNode) {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := node.children[name]
		l.AppendItem(child.name)
		if len(child.children) > 0 {
			l.Indent()
			appendNodes(l, child)
			l.UnIndent()
		}
	}
}
