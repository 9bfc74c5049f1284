package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Vault    VaultConfig    `toml:"vault"`
	Search   SearchConfig   `toml:"search"`
	Display  DisplayConfig  `toml:"display"`
}

// DatabaseConfig holds index-related settings.
type DatabaseConfig struct {
	Path string `toml:"path"` // Index file; relative names resolve in the data dir
}

// VaultConfig locates the prompt documents.
type VaultConfig struct {
	Dir        string   `toml:"dir"`        // Vault root directory
	Extensions []string `toml:"extensions"` // File extensions treated as prompts
}

// SearchConfig holds search-related settings.
type SearchConfig struct {
	DefaultLimit int `toml:"default_limit"` // Default number of search results
}

// DisplayConfig holds display-related settings.
type DisplayConfig struct {
	Width          int   `toml:"width"`           // Default output width
	RenderMarkdown bool  `toml:"render_markdown"` // Render markdown by default
	ColorOutput    *bool `toml:"color_output"`    // Enable colored output (nil = auto)
}

// Load reads the configuration from FilePath or uses defaults.
func Load() (*Config, error) {
	configPath, err := FilePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration at path, layering it over the defaults.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to FilePath.
func (cfg *Config) Save() error {
	configPath, err := FilePath()
	if err != nil {
		return err
	}
	return cfg.SaveTo(configPath)
}

func (cfg *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// FilePath is $PROMPTHOARDER_CONFIG, else config.toml in ConfigDir.
func FilePath() (string, error) {
	if path := os.Getenv("PROMPTHOARDER_CONFIG"); path != "" {
		return path, nil
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Keys lists the dotted keys accepted by Get and Set.
var Keys = []string{
	"database.path",
	"vault.dir",
	"vault.extensions",
	"search.default_limit",
	"display.width",
	"display.render_markdown",
	"display.color_output",
}

// Get returns the value of a dotted key formatted for display.
func (cfg *Config) Get(key string) (string, error) {
	switch key {
	case "database.path":
		return cfg.Database.Path, nil
	case "vault.dir":
		return cfg.Vault.Dir, nil
	case "vault.extensions":
		return strings.Join(cfg.Vault.Extensions, ","), nil
	case "search.default_limit":
		return strconv.Itoa(cfg.Search.DefaultLimit), nil
	case "display.width":
		return strconv.Itoa(cfg.Display.Width), nil
	case "display.render_markdown":
		return strconv.FormatBool(cfg.Display.RenderMarkdown), nil
	case "display.color_output":
		if cfg.Display.ColorOutput == nil {
			return "auto", nil
		}
		return strconv.FormatBool(*cfg.Display.ColorOutput), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set assigns a dotted key from its string form.
func (cfg *Config) Set(key, value string) error {
	switch key {
	case "database.path":
		cfg.Database.Path = value
	case "vault.dir":
		cfg.Vault.Dir = value
	case "vault.extensions":
		var exts []string
		for ext := range strings.SplitSeq(value, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			exts = append(exts, ext)
		}
		if len(exts) == 0 {
			return fmt.Errorf("invalid extensions: %q", value)
		}
		cfg.Vault.Extensions = slices.Compact(exts)
	case "search.default_limit":
		limit, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("invalid limit: %s", value)
		}
		cfg.Search.DefaultLimit = limit
	case "display.width":
		width, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("invalid width: %s", value)
		}
		cfg.Display.Width = width
	case "display.render_markdown":
		render, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s (use true/false)", value)
		}
		cfg.Display.RenderMarkdown = render
	case "display.color_output":
		if value == "auto" {
			cfg.Display.ColorOutput = nil
			return nil
		}
		color, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value: %s (use true/false/auto)", value)
		}
		cfg.Display.ColorOutput = &color
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}
