package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Storage StorageConfig
	LLM     LLMConfig
	Canvas  CanvasConfig
	UI      UIConfig
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	RecentsPath string `mapstructure:"recents_path"`
	AutosaveDir string `mapstructure:"autosave_dir"`
}

// LLMConfig holds image-generation provider settings.
type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
}

// CanvasConfig holds document defaults.
type CanvasConfig struct {
	DefaultZoom     float64 `mapstructure:"default_zoom"`
	MaxHistoryDepth int     `mapstructure:"max_history_depth"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Accent     string `mapstructure:"accent"`
	DateFormat string `mapstructure:"date_format"`
}

// Load reads configuration from file and env. Env var overrides use prefix BANANASLICE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("storage.recents_path", filepath.Join(os.Getenv("HOME"), ".local", "share", "bananaslice", "recents.db"))
	v.SetDefault("storage.autosave_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "bananaslice", "autosave"))
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash-image")
	v.SetDefault("canvas.default_zoom", 1.0)
	v.SetDefault("canvas.max_history_depth", 50)
	v.SetDefault("ui.accent", "178")
	v.SetDefault("ui.date_format", "02/01")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BANANASLICE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "bananaslice"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BANANASLICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// This is primarily used by the settings view for non-sensitive preferences.
// The API key belongs in the secrets store or an env var, not here.
func Save(cfg Config) error {
	path := os.Getenv("BANANASLICE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "bananaslice", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("storage.recents_path", cfg.Storage.RecentsPath)
	v.Set("storage.autosave_dir", cfg.Storage.AutosaveDir)
	v.Set("llm.provider", cfg.LLM.Provider)
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("canvas.default_zoom", cfg.Canvas.DefaultZoom)
	v.Set("canvas.max_history_depth", cfg.Canvas.MaxHistoryDepth)
	v.Set("ui.accent", cfg.UI.Accent)
	v.Set("ui.date_format", cfg.UI.DateFormat)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
