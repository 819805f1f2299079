// Package config handles configuration loading for labcrew. It supports XDG
// config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for labcrew.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Serper    SerperConfig    `mapstructure:"serper"`
	Server    ServerConfig    `mapstructure:"server"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Document  DocumentConfig  `mapstructure:"document"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// SerperConfig holds web search settings.
type SerperConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	DataDir        string `mapstructure:"data_dir"`
	DBPath         string `mapstructure:"db_path"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// PipelineConfig holds run-level settings.
type PipelineConfig struct {
	MaxParallel int    `mapstructure:"max_parallel"`
	DefaultMode string `mapstructure:"default_mode"`
	// File optionally points at a YAML pipeline definition replacing the
	// built-in graph.
	File string `mapstructure:"file"`
}

// DocumentConfig holds document extraction settings.
type DocumentConfig struct {
	ReadAttempts int           `mapstructure:"read_attempts"`
	ReadBackoff  time.Duration `mapstructure:"read_backoff"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SERPER_API_KEY, LABCREW_*)
// 2. Project config (.labcrew.yaml in current directory or a parent)
// 3. User config (~/.config/labcrew/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		pv := viper.New()
		pv.SetConfigFile(projectConfig)
		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Serper.APIKey = os.ExpandEnv(cfg.Serper.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Serper.APIKey = os.ExpandEnv(cfg.Serper.APIKey)
	return cfg, nil
}

// Watch reloads the config file at path whenever it changes and hands the
// fresh config to onChange. Reload failures are logged and the previous
// config stays in effect.
func Watch(path string, onChange func(*Config)) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := LoadFromPath(e.Name)
		if err != nil {
			log.Printf("[config] reload of %s failed: %v", e.Name, err)
			return
		}
		log.Printf("[config] reloaded %s", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("LABCREW")
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "LABCREW_MODEL")
	v.BindEnv("anthropic.use_bedrock", "LABCREW_USE_BEDROCK")
	v.BindEnv("serper.api_key", "SERPER_API_KEY")
	v.BindEnv("server.addr", "LABCREW_ADDR")
	v.BindEnv("server.data_dir", "DATA_DIR")
	v.BindEnv("server.db_path", "LABCREW_DB_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "us-east-1")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("serper.api_key", "")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.data_dir", "data")
	v.SetDefault("server.db_path", filepath.Join("output", "labcrew.db"))
	v.SetDefault("server.max_upload_bytes", 10_000_000)

	v.SetDefault("pipeline.max_parallel", 4)
	v.SetDefault("pipeline.default_mode", "full")
	v.SetDefault("pipeline.file", "")

	v.SetDefault("document.read_attempts", 3)
	v.SetDefault("document.read_backoff", "100ms")
}

// userConfigDir returns the XDG config directory for labcrew.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "labcrew")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "labcrew")
	}
	return filepath.Join(home, ".config", "labcrew")
}

// findProjectConfig searches for .labcrew.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(cwd, ".labcrew.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			AWSRegion: "us-east-1",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			DataDir:        "data",
			DBPath:         filepath.Join("output", "labcrew.db"),
			MaxUploadBytes: 10_000_000,
		},
		Pipeline: PipelineConfig{
			MaxParallel: 4,
			DefaultMode: "full",
		},
		Document: DocumentConfig{
			ReadAttempts: 3,
			ReadBackoff:  100 * time.Millisecond,
		},
	}
}
