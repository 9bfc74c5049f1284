package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "prompthoarder"

// ConfigDir returns the XDG configuration directory for prompthoarder.
// Uses $XDG_CONFIG_HOME/prompthoarder or ~/.config/prompthoarder on Unix.
// On macOS, uses ~/Library/Application Support/prompthoarder.
func ConfigDir() (string, error) {
	if homeOverride := os.Getenv("PROMPTHOARDER_HOME"); homeOverride != "" {
		return filepath.Join(homeOverride, "config"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appName), nil
	}

	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}

	return filepath.Join(home, ".config", appName), nil
}

// DataDir returns the XDG data directory holding the index and, by default,
// the vault. Uses $XDG_DATA_HOME/prompthoarder or ~/.local/share/prompthoarder
// on Unix.
func DataDir() (string, error) {
	if homeOverride := os.Getenv("PROMPTHOARDER_HOME"); homeOverride != "" {
		return filepath.Join(homeOverride, "data"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appName), nil
	}

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}

	return filepath.Join(home, ".local", "share", appName), nil
}

// ResolveDatabasePath converts an index name or path to a usable path.
// Empty input means the configured default. Absolute paths and paths with a
// directory component are returned as-is; bare names resolve in DataDir and
// get a .sqlite extension when they have none.
func ResolveDatabasePath(cfg *Config, nameOrPath string) (string, error) {
	if nameOrPath == "" {
		nameOrPath = cfg.Database.Path
	}
	if nameOrPath == "" {
		return defaultDatabasePath(), nil
	}

	nameOrPath = expandHome(nameOrPath)
	if filepath.IsAbs(nameOrPath) || strings.ContainsRune(nameOrPath, filepath.Separator) {
		return nameOrPath, nil
	}

	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}

	if filepath.Ext(nameOrPath) == "" {
		nameOrPath += ".sqlite"
	}

	return filepath.Join(dataDir, nameOrPath), nil
}

// ResolveVaultDir returns the vault root, expanding a leading "~".
func ResolveVaultDir(cfg *Config, override string) string {
	if override != "" {
		return expandHome(override)
	}
	if cfg.Vault.Dir == "" {
		return defaultVaultDir()
	}
	return expandHome(cfg.Vault.Dir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
