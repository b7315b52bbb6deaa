package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultDBPath = "threadwise.db"

	DefaultBackend       = BackendGemini
	DefaultGeminiModel   = "gemini-2.0-flash-001"
	DefaultOllamaModel   = "llama3.2:3b"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultTemperature   = 0.7
	DefaultTopP          = 0.9
	DefaultTopK          = 40
	DefaultMaxTokens     = 800
	DefaultRepeatPenalty = 1.1
	// Generation can take tens of seconds on a local model.
	DefaultGenerationTimeout = 30 * time.Second
	DefaultBreakerFailures   = 5
	DefaultBreakerCooldown   = 30 * time.Second

	DefaultLiveContextLimit    = 10
	DefaultSummaryContextLimit = 500
	DefaultAssistantName       = "AI Assistant"
	DefaultAssistantUserID     = "threadwise-assistant"

	DefaultHTTPAddr            = ":8080"
	DefaultHTTPReadTimeout     = 10 * time.Second
	DefaultHTTPWriteTimeout    = 90 * time.Second // must exceed generation timeout
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultMaintenanceSchedule = "0 0 4 * * *"
)

// DefaultMessages are the user-facing Telegram texts.
var DefaultMessages = MessagesConfig{
	Welcome:        "👋 I'm ready to help. Reply to a message with /suggest, ask for a /summary, or check a draft with /tone.",
	Help:           "/summary - summarize this chat, or the thread you reply to\n/suggest - reply suggestions for the message you reply to\n/tone <draft> - tone and impact of a draft\nMention me to get an answer.",
	GeneralError:   "❌ An error occurred. Please try again later.",
	Unauthorized:   "🚫 You are not a member of this workspace.",
	NeedsReply:     "ℹ️ Reply to a message to use this command.",
	UnknownMessage: "🤷 I don't have that message on record.",
	ProvideDraft:   "ℹ️ Please provide a draft after the command.",
	NoTone:         "🤷 No tone available for that draft.",
	Summarizing:    "⏳ Summarizing...",
	NoSuggestions:  "🤷 No suggestions available right now.",
	SuggestionHead: "💡 Suggested replies:",
}

// DefaultCommands populate the Telegram command menu.
var DefaultCommands = []CommandConfig{
	{Command: "start", Description: "Start using the assistant"},
	{Command: "help", Description: "Show available commands"},
	{Command: "summary", Description: "Summarize this chat or the replied thread"},
	{Command: "suggest", Description: "Suggest replies to the replied message"},
	{Command: "tone", Description: "Analyze the tone of a draft"},
}

// setDefaults registers a default for every key so that environment
// variables are picked up by Unmarshal even when the key is absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("generation.backend", DefaultBackend)
	v.SetDefault("generation.model", DefaultGeminiModel)
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.temperature", DefaultTemperature)
	v.SetDefault("generation.top_p", DefaultTopP)
	v.SetDefault("generation.top_k", DefaultTopK)
	v.SetDefault("generation.max_tokens", DefaultMaxTokens)
	v.SetDefault("generation.repeat_penalty", DefaultRepeatPenalty)
	v.SetDefault("generation.timeout", DefaultGenerationTimeout)
	v.SetDefault("generation.breaker.max_failures", DefaultBreakerFailures)
	v.SetDefault("generation.breaker.cooldown", DefaultBreakerCooldown)

	v.SetDefault("assistant.live_context_limit", DefaultLiveContextLimit)
	v.SetDefault("assistant.summary_context_limit", DefaultSummaryContextLimit)
	v.SetDefault("assistant.strict_tone", false)
	v.SetDefault("assistant.name", DefaultAssistantName)
	v.SetDefault("assistant.user_id", DefaultAssistantUserID)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.workspace_id", "")
	v.SetDefault("telegram.auto_enroll", true)
	v.SetDefault("telegram.messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("telegram.messages.help", DefaultMessages.Help)
	v.SetDefault("telegram.messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("telegram.messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("telegram.messages.needs_reply", DefaultMessages.NeedsReply)
	v.SetDefault("telegram.messages.unknown_message", DefaultMessages.UnknownMessage)
	v.SetDefault("telegram.messages.provide_draft", DefaultMessages.ProvideDraft)
	v.SetDefault("telegram.messages.no_tone", DefaultMessages.NoTone)
	v.SetDefault("telegram.messages.summarizing", DefaultMessages.Summarizing)
	v.SetDefault("telegram.messages.no_suggestions", DefaultMessages.NoSuggestions)
	v.SetDefault("telegram.messages.suggestion_head", DefaultMessages.SuggestionHead)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultMaintenanceSchedule)
}
