package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/threadwise/internal/apperr"
)

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}

	switch c.Generation.Backend {
	case BackendGemini, BackendOpenAI, BackendAnthropic:
		if c.Generation.APIKey == "" {
			return fmt.Errorf("%w: generation.api_key is required for the %s backend", apperr.ErrConfiguration, c.Generation.Backend)
		}
	case BackendOllama:
		if c.Generation.BaseURL == "" {
			return fmt.Errorf("%w: generation.base_url is required for the ollama backend", apperr.ErrConfiguration)
		}
	}

	if !c.HTTP.Enabled && !c.Telegram.Enabled {
		return fmt.Errorf("%w: at least one of http or telegram must be enabled", apperr.ErrConfiguration)
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && task.Schedule == "" {
			return fmt.Errorf("%w: scheduler task %q is enabled without a schedule", apperr.ErrConfiguration, name)
		}
	}

	return nil
}
