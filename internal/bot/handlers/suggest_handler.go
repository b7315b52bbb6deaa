package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/assistant"
)

// NewSuggestHandler returns a handler for the /suggest command, which must be
// sent as a reply to the message to answer.
func NewSuggestHandler(deps HandlerDeps) bot.HandlerFunc {
	return suggestHandler{deps}.Handle
}

type suggestHandler struct {
	deps HandlerDeps
}

func (h suggestHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "suggest")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.ErrorContext(ctx, "Suggest handler called with nil Message or From", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID
	messages := h.deps.Config.Telegram.Messages

	if msg.ReplyToMessage == nil {
		h.deps.notify(ctx, b, chatID, messages.NeedsReply)
		return
	}

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

	log.InfoContext(ctx, "Handling /suggest command", "chat_id", chatID, "user_id", msg.From.ID, "target_id", target.ID)
	stopTyping := keepTyping(ctx, b, chatID)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	suggestions, err := h.deps.Assistant.SuggestReplies(aiCtx, assistant.SuggestRequest{
		WorkspaceID:     h.deps.Config.Telegram.WorkspaceID,
		TargetMessageID: target.ID,
		RequesterUserID: UserKey(msg.From),
	})
	stopTyping()
	if err != nil {
		log.ErrorContext(ctx, "Suggestions failed", "error", err, "chat_id", chatID)
		h.deps.notify(ctx, b, chatID, h.deps.errorText(err))
		return
	}

	if _, err := h.deps.sendText(ctx, b, chatID, msg.ReplyToMessage.ID, FormatSuggestions(messages.SuggestionHead, messages.NoSuggestions, suggestions)); err != nil {
		log.ErrorContext(ctx, "Failed to send suggestions", "error", err, "chat_id", chatID)
	}
}

// FormatSuggestions renders suggestions as a numbered list under head.
func FormatSuggestions(head, empty string, suggestions []string) string {
	if len(suggestions) == 0 {
		return empty
	}
	var sb strings.Builder
	sb.WriteString(head)
	for i, s := range suggestions {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, s)
	}
	return sb.String()
}
