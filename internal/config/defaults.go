package config

import (
	"path/filepath"
)

const defaultIndexName = "index.sqlite"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: defaultDatabasePath()},
		Vault: VaultConfig{
			Dir: defaultVaultDir(), Extensions: []string{".md", ".markdown"},
		},
		Search: SearchConfig{DefaultLimit: 20},
		Display: DisplayConfig{
			Width: 80, RenderMarkdown: false, ColorOutput: nil,
		},
	}
}

func defaultDatabasePath() string {
	dataDir, err := DataDir()
	if err != nil {
		return defaultIndexName
	}
	return filepath.Join(dataDir, defaultIndexName)
}

func defaultVaultDir() string {
	dataDir, err := DataDir()
	if err != nil {
		return "prompts"
	}
	return filepath.Join(dataDir, "prompts")
}
