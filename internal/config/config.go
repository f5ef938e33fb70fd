// Package config loads and saves the bizlens TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the chat-completion credential.
const APIKeyEnv = "GROQ_API_KEY"

// Config holds all bizlens configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	LLM        LLMConfig        `toml:"llm"`
	Insights   InsightsConfig   `toml:"insights"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
	History    HistoryConfig    `toml:"history"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	PreviewRows   int    `toml:"preview_rows"`
	DefaultColumn string `toml:"default_column,omitempty"`
}

// LLMConfig holds chat-completion service settings.
type LLMConfig struct {
	APIKey      string  `toml:"api_key,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Discover    bool    `toml:"discover"`
}

// InsightsConfig controls how tables are turned into prompts.
type InsightsConfig struct {
	Mode         string `toml:"mode"`
	SampleRows   int    `toml:"sample_rows"`
	MaxColumns   int    `toml:"max_columns"`
	PromptBudget int    `toml:"prompt_budget"`
	Seed         uint64 `toml:"seed,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for `bizlens serve`.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// HistoryConfig controls the insight journal.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			PreviewRows: 5,
		},
		LLM: LLMConfig{
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.7,
			MaxTokens:   700,
		},
		Insights: InsightsConfig{
			Mode:         "summary",
			SampleRows:   10,
			MaxColumns:   10,
			PromptBudget: 4000,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8787",
			MaxUploadMB: 32,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bizlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bizlens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "bizlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "bizlens")
}

// HistoryPath returns the insight journal database path.
func HistoryPath() string {
	return filepath.Join(CacheDir(), "history.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// GetAPIKey returns the API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	return cfg.LLM.APIKey
}

// MaskKey hides all but the last four characters of a credential.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
