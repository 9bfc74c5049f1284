package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the prompthoarder configuration file.

Configuration is stored in TOML format in the XDG config directory, or at
$PROMPTHOARDER_CONFIG when set.

Keys: ` + strings.Join(config.Keys, ", "),
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigEditCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.FilePath()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# Configuration file: %s\n\n", configPath)
	if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg); err != nil {
		return err
	}
	if cfg.Display.ColorOutput == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "# color_output = auto")
	}
	return nil
}

func newConfigEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open configuration in editor",
		Args:  cobra.NoArgs,
		RunE:  runConfigEdit,
	}
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, err := config.FilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := config.DefaultConfig().SaveTo(configPath); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editCmd := exec.Command(editor, configPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr

	return editCmd.Run()
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Example:   "  prompthoarder config set vault.dir ~/prompts\n  prompthoarder config set vault.extensions md,txt",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys,
		RunE:      runConfigSet,
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	if !quiet {
		stored, _ := cfg.Get(key)
		p.PrintSuccess(fmt.Sprintf("Set %s = %s", key, stored))
	}
	return nil
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys,
		RunE:      runConfigGet,
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.FilePath()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)
	return nil
}
