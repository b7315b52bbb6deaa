package handlers

import (
	"context"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/config"
)

type mentionHandler struct {
	deps HandlerDeps
}

// NewMentionHandler creates a handler that answers messages mentioning the bot
// or replying to it. The answer is generated from the stored context, stored
// itself and linked to the Telegram message it was sent as.
func NewMentionHandler(deps HandlerDeps) bot.HandlerFunc {
	return mentionHandler{deps}.Handle
}

func (h mentionHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "mention")

	msg := update.Message
	if msg == nil || msg.From == nil || MessageText(msg) == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty content, or nil sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	if !Mentions(msg, deps.Config.Telegram.BotInfo) {
		log.DebugContext(ctx, "Bot not mentioned or referenced, skipping mention handler logic", "chat_id", chatID)
		return
	}

	stored := StoredMessage(ctx)
	if stored == nil {
		member, err := deps.member(ctx, msg.From)
		switch {
		case err == nil && member == nil:
			deps.notify(ctx, b, chatID, deps.Config.Telegram.Messages.Unauthorized)
		default:
			log.ErrorContext(ctx, "Mention was not stored, cannot respond", "chat_id", chatID, "message_id", msg.ID)
			deps.notify(ctx, b, chatID, deps.Config.Telegram.Messages.GeneralError)
		}
		return
	}

	log.InfoContext(ctx, "Handling mention", "chat_id", chatID, "message_id", msg.ID, "stored_id", stored.ID)
	stopTyping := keepTyping(ctx, b, chatID)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()
	reply, err := deps.Assistant.AutoRespond(aiCtx, assistant.RespondRequest{
		WorkspaceID:     deps.Config.Telegram.WorkspaceID,
		Scope:           assistant.ScopeOf(stored),
		TargetMessageID: stored.ID,
		RequesterUserID: UserKey(msg.From),
	})
	stopTyping()
	if err != nil {
		log.ErrorContext(ctx, "Auto-response failed", "error", err, "chat_id", chatID)
		deps.notify(ctx, b, chatID, deps.errorText(err))
		return
	}

	sent, err := deps.sendGenerated(ctx, b, chatID, msg.ID, reply.Body)
	if err != nil || sent == nil {
		log.ErrorContext(ctx, "Failed to send reply message", "error", err, "chat_id", chatID, "reply_id", reply.ID)
		return
	}
	log.InfoContext(ctx, "Sent reply", "chat_id", chatID, "message_id", sent.ID, "reply_id", reply.ID)

	dbCtx, cancelDB := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancelDB()
	if err := deps.Store.SetExternalID(dbCtx, reply.ID, ExternalID(sent.ID)); err != nil {
		log.ErrorContext(ctx, "Failed to link reply to sent message", "error", err, "reply_id", reply.ID, "message_id", sent.ID)
	}
}

// Mentions reports whether msg addresses the bot: an @mention, the bare
// username as a word, or a reply to one of the bot's messages.
func Mentions(msg *models.Message, info *config.BotInfo) bool {
	if msg == nil || info == nil || info.Username == "" {
		return false
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == info.ID {
		return true
	}

	username := strings.ToLower(info.Username)
	for _, w := range strings.Fields(strings.ToLower(msg.Text + " " + msg.Caption)) {
		stripped := strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if stripped == username {
			return true
		}
	}
	return false
}
