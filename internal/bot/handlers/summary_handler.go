package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/scope"
)

// NewSummaryHandler returns a handler for the /summary command. Used as a
// reply it summarizes the replied message's thread, otherwise the whole chat.
func NewSummaryHandler(deps HandlerDeps) bot.HandlerFunc {
	return summaryHandler{deps}.Handle
}

type summaryHandler struct {
	deps HandlerDeps
}

func (h summaryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "summary")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.ErrorContext(ctx, "Summary handler called with nil Message or From", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID
	messages := h.deps.Config.Telegram.Messages

	sc := ChatScope(msg.Chat)
	if msg.ReplyToMessage != nil {
		target, err := h.deps.lookup(ctx, msg.Chat, msg.ReplyToMessage.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to resolve replied message", "error", err, "chat_id", chatID)
			h.deps.notify(ctx, b, chatID, messages.GeneralError)
			return
		}
		if target == nil {
			h.deps.notify(ctx, b, chatID, messages.UnknownMessage)
			return
		}
		sc = scope.Thread(threadRoot(target))
	}

	log.InfoContext(ctx, "Handling /summary command", "chat_id", chatID, "user_id", msg.From.ID, "scope", sc.String())
	h.deps.notify(ctx, b, chatID, messages.Summarizing)
	stopTyping := keepTyping(ctx, b, chatID)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	result, err := h.deps.Assistant.Summarize(aiCtx, assistant.SummaryRequest{
		WorkspaceID:     h.deps.Config.Telegram.WorkspaceID,
		Scope:           sc,
		RequesterUserID: UserKey(msg.From),
	})
	stopTyping()
	if err != nil {
		log.ErrorContext(ctx, "Summary failed", "error", err, "chat_id", chatID, "scope", sc.String())
		h.deps.notify(ctx, b, chatID, h.deps.errorText(err))
		return
	}

	log.InfoContext(ctx, "Summary ready", "chat_id", chatID, "scope", sc.String(),
		"messages", result.MessageCount, "persisted", result.Persisted, "fallback", result.Fallback)
	if _, err := h.deps.sendGenerated(ctx, b, chatID, msg.ID, result.Text); err != nil {
		log.ErrorContext(ctx, "Failed to send summary", "error", err, "chat_id", chatID)
	}
}
