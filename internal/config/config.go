// Package config provides configuration loading, validation, and defaults
// for threadwise. Values come from a YAML file and THREADWISE_* environment
// variables, layered over the defaults in defaults.go.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Generation GenerationConfig `mapstructure:"generation"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// Generation backends.
const (
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// GenerationConfig selects and configures the text-generation backend.
type GenerationConfig struct {
	Backend     string  `mapstructure:"backend"     validate:"oneof=gemini ollama openai anthropic"`
	Model       string  `mapstructure:"model"       validate:"required"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"    validate:"omitempty,url"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	TopP        float32 `mapstructure:"top_p"       validate:"min=0,max=1"`
	TopK        int     `mapstructure:"top_k"       validate:"min=0"`
	MaxTokens   int     `mapstructure:"max_tokens"  validate:"min=0"`
	// RepeatPenalty is only honored by the ollama backend.
	RepeatPenalty float32       `mapstructure:"repeat_penalty" validate:"min=0"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"min=1s,max=10m"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the backend.
// A zero MaxFailures disables it.
type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" validate:"min=0"`
	Cooldown    time.Duration `mapstructure:"cooldown"     validate:"min=0"`
}

// AssistantConfig tunes the context windows and parsing policy.
type AssistantConfig struct {
	// LiveContextLimit bounds the window for reply suggestions and auto-responses.
	LiveContextLimit int `mapstructure:"live_context_limit" validate:"min=1,max=500"`
	// SummaryContextLimit bounds the window for summaries.
	SummaryContextLimit int `mapstructure:"summary_context_limit" validate:"min=1,max=5000"`
	// StrictTone rejects tone/impact values outside the known sets.
	StrictTone bool `mapstructure:"strict_tone"`
	// Name and UserID identify the assistant as a message author.
	Name   string `mapstructure:"name"    validate:"required"`
	UserID string `mapstructure:"user_id" validate:"required"`
}

// HTTPConfig configures the JSON API server.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"             validate:"required_if=Enabled true"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// TelegramConfig configures the optional Telegram front-end.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"        validate:"required_if=Enabled true"`
	// WorkspaceID is the workspace every Telegram chat is ingested into.
	WorkspaceID string `mapstructure:"workspace_id" validate:"required_if=Enabled true"`
	// AutoEnroll makes every sender a workspace member on their first message.
	// When false, members must be provisioned and other senders are ignored.
	AutoEnroll bool            `mapstructure:"auto_enroll"`
	Messages   MessagesConfig  `mapstructure:"messages"`
	BotInfo    *BotInfo        `mapstructure:"-"`
	Commands   []CommandConfig `mapstructure:"commands"`
}

// BotInfo is filled at runtime from getMe.
type BotInfo struct {
	ID        int64
	Username  string
	FirstName string
}

// MessagesConfig holds user-facing bot texts.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"`
	Help           string `mapstructure:"help"`
	GeneralError   string `mapstructure:"general_error"`
	Unauthorized   string `mapstructure:"unauthorized"`
	NeedsReply     string `mapstructure:"needs_reply"`
	UnknownMessage string `mapstructure:"unknown_message"`
	ProvideDraft   string `mapstructure:"provide_draft"`
	NoTone         string `mapstructure:"no_tone"`
	Summarizing    string `mapstructure:"summarizing"`
	NoSuggestions  string `mapstructure:"no_suggestions"`
	SuggestionHead string `mapstructure:"suggestion_head"`
}

// CommandConfig describes a bot command for the Telegram command menu.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required"`
	Description string `mapstructure:"description" validate:"required"`
}

// SchedulerConfig lists cron-scheduled maintenance tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field allowed).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
