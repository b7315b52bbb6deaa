package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/parse"
)

// NewToneHandler returns a handler for the /tone command. The draft is the
// command argument, or the replied message's text when there is none.
func NewToneHandler(deps HandlerDeps) bot.HandlerFunc {
	return toneHandler{deps}.Handle
}

type toneHandler struct {
	deps HandlerDeps
}

func (h toneHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "tone")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.ErrorContext(ctx, "Tone handler called with nil Message or From", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID
	messages := h.deps.Config.Telegram.Messages

	draft := CommandArgs(msg.Text)
	if draft == "" && msg.ReplyToMessage != nil {
		draft = MessageText(msg.ReplyToMessage)
	}
	if draft == "" {
		h.deps.notify(ctx, b, chatID, messages.ProvideDraft)
		return
	}

	log.InfoContext(ctx, "Handling /tone command", "chat_id", chatID, "user_id", msg.From.ID, "draft_length", len(draft))
	stopTyping := keepTyping(ctx, b, chatID)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	tone, err := h.deps.Assistant.AnalyzeTone(aiCtx, draft)
	stopTyping()
	if err != nil {
		log.ErrorContext(ctx, "Tone analysis failed", "error", err, "chat_id", chatID)
		h.deps.notify(ctx, b, chatID, h.deps.errorText(err))
		return
	}

	h.deps.notify(ctx, b, chatID, FormatTone(tone, messages.NoTone))
}

// FormatTone renders a tone result, or empty when there is none.
func FormatTone(tone *parse.Tone, empty string) string {
	if tone == nil {
		return empty
	}
	return fmt.Sprintf("🎭 Tone: %s\n💬 Impact: %s", tone.Tone, tone.Impact)
}
