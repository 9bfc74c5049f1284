package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/config"
	"github.com/stormlightlabs/prompthoarder/internal/index"
)

const welcomePrompt = `---
title: Welcome
category: Getting Started
tags: [example]
---
# Welcome

Summarize the following text for {{audience}}:

{{text}}
`

var (
	initSample bool
	initWrite  bool
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the vault and index",
		Long: `Create the vault directory (if missing), initialize the prompt index and
index every document already in the vault.

With --save-config the resolved vault and index locations are written to the
configuration file.`,
		Example: `  prompthoarder init
  prompthoarder init --vault ~/prompts --save-config
  prompthoarder init --sample`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().BoolVar(&initSample, "sample", false, "Write an example prompt into an empty vault")
	cmd.Flags().BoolVar(&initWrite, "save-config", false, "Persist the vault and index locations")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	source := resolveVault()
	if err := os.MkdirAll(source.Root, 0o755); err != nil {
		return fmt.Errorf("create vault: %w", err)
	}

	if initSample {
		samplePath := filepath.Join(source.Root, "welcome.md")
		if _, err := os.Stat(samplePath); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(samplePath, []byte(welcomePrompt), 0o644); err != nil {
				return err
			}
		}
	}

	if initWrite {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		cfg.Vault.Dir = source.Root
		cfg.Database.Path = path
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if configPath, err := config.FilePath(); err == nil && !quiet {
			p.PrintInfo(fmt.Sprintf("Saved %s", p.FormatPath(configPath)))
		}
	}

	return withEngine(cmd, func(ctx context.Context, engine *index.Engine) error {
		summary, err := engine.Sync(ctx, nil)
		if err != nil {
			return err
		}
		if !quiet {
			p.PrintSuccess(fmt.Sprintf("Initialized %s", p.FormatPath(engine.Path())))
			p.PrintListItem("Vault", p.FormatPath(source.Root))
			p.PrintListItem("Prompts", fmt.Sprintf("%d", summary.Scanned))
		}
		return nil
	})
}
