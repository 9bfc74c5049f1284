package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/prompthoarder/internal/config"
	"github.com/stormlightlabs/prompthoarder/internal/index"
	"github.com/stormlightlabs/prompthoarder/internal/vault"
)

// Version is stamped at build time.
var Version = "dev"

var (
	cfg      *config.Config
	dbPath   string
	vaultDir string
	verbose  bool
	quiet    bool
	noColor  bool
	p        = NewPrinter(os.Stdout)
)

var rootCmd = &cobra.Command{
	Use:   "prompthoarder",
	Short: "A local-first prompt library",
	Long: `Prompthoarder keeps a library of prompt documents (markdown files in a
vault directory) searchable through a regenerable SQLite index, and organizes
them into categories, tags and multi-step workflows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		p.SetOutput(cmd.OutOrStdout())
		setupLogging()
		if noColor || (cfg.Display.ColorOutput != nil && !*cfg.Display.ColorOutput) {
			disableColor()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	loadConfig()
	rootCmd.Version = Version
	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.AddCommand(
		newInitCommand(),
		newRebuildCommand(),
		newSyncCommand(),
		newSearchCommand(),
		newListCommand(),
		newShowCommand(),
		newUseCommand(),
		newFavoriteCommand(),
		newArchiveCommand(),
		newCategoryCommand(),
		newTagCommand(),
		newWorkflowCommand(),
		newExportCommand(),
		newImportCommand(),
		newInfoCommand(),
		newConfigCommand(),
		newMCPCommand(),
	)
	return rootCmd.Execute()
}

func loadConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "Index path (default: $XDG_DATA_HOME/prompthoarder/index.sqlite)")
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault", "", "Vault directory (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	switch {
	case verbose:
		log.SetLevel(log.DebugLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

func resolveDBPath() (string, error) {
	return config.ResolveDatabasePath(cfg, dbPath)
}

func resolveVault() *vault.Dir {
	return vault.NewDir(config.ResolveVaultDir(cfg, vaultDir), cfg.Vault.Extensions...)
}

// openEngine builds an engine over the configured vault and index and
// initializes it. Callers must Close it.
func openEngine(ctx context.Context) (*index.Engine, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	engine, err := index.New(index.Options{
		Path:   path,
		Source: resolveVault(),
		Logger: log.Default(),
	})
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("open index %s: %w (try `prompthoarder rebuild`)", path, err)
	}
	return engine, nil
}

// withEngine opens the index, runs fn and closes the index again.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, engine *index.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(ctx, engine)
}

func usageTemplate() string {
	return strings.TrimSpace(`
{{with or .Long .Short }}{{. | trimTrailingWhitespaces}}{{end}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}

Prompts can be named by id or by vault path; the file extension is optional.

Use "{{.CommandPath}} [command] --help" for more information about a command.
`) + "\n"
}
