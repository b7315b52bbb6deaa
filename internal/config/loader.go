package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. THREADWISE_GENERATION_API_KEY.
const EnvPrefix = "THREADWISE"

// LoadConfig loads configuration from:
//  1. Default values
//  2. the YAML file at path (optional; a missing file means defaults only)
//  3. THREADWISE_* environment variables
//
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Telegram.Commands) == 0 {
		cfg.Telegram.Commands = DefaultCommands
	}
	applyBackendDefaults(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyBackendDefaults swaps gemini-specific defaults for the ollama backend
// when the user did not set them explicitly.
func applyBackendDefaults(v *viper.Viper, cfg *Config) {
	if cfg.Generation.Backend != BackendOllama {
		return
	}
	if !v.InConfig("generation.model") && os.Getenv(EnvPrefix+"_GENERATION_MODEL") == "" {
		cfg.Generation.Model = DefaultOllamaModel
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = DefaultOllamaURL
	}
}
