package handlers

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/sanitize"
	"github.com/edgard/threadwise/internal/scope"
)

const (
	aiProcessingTimeout = 2 * time.Minute
	sendMessageTimeout  = 10 * time.Second
	dbSaveTimeout       = 5 * time.Second
	typingInterval      = 4 * time.Second

	// maxMessageLength is Telegram's limit on a message text, in characters.
	maxMessageLength = 4096
)

var plainText = sanitize.NewTelegramPolicy()

// ChatScope maps a Telegram chat to the scope its top-level messages belong to:
// private chats are conversations, everything else is a channel.
func ChatScope(chat models.Chat) scope.Scope {
	id := "tg:" + strconv.FormatInt(chat.ID, 10)
	if chat.Type == models.ChatTypePrivate {
		return scope.Conversation(id)
	}
	return scope.Channel(id)
}

// UserKey is the workspace user id of a Telegram account.
func UserKey(u *models.User) string {
	return "tg:" + strconv.FormatInt(u.ID, 10)
}

// DisplayName is the name shown for a Telegram account in context windows.
func DisplayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	default:
		return UserKey(u)
	}
}

// ExternalID is the stored external id of a Telegram message.
func ExternalID(messageID int) string {
	return strconv.Itoa(messageID)
}

// MessageText returns the text or caption of a message.
func MessageText(msg *models.Message) string {
	if msg.Text != "" {
		return strings.TrimSpace(msg.Text)
	}
	return strings.TrimSpace(msg.Caption)
}

// IsCommand reports whether the message starts with a bot command.
func IsCommand(msg *models.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return strings.HasPrefix(msg.Text, "/")
}

// CommandArgs returns the text after the leading command word.
func CommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	_, rest, _ := strings.Cut(text, " ")
	return strings.TrimSpace(rest)
}

// threadRoot returns the id of the thread a stored message starts or belongs to.
func threadRoot(m *database.Message) int64 {
	if m.ParentMessageID.Valid {
		return m.ParentMessageID.Int64
	}
	return m.ID
}

func applyChatScope(m *database.Message, sc scope.Scope) {
	switch sc.Type() {
	case scope.TypeChannel:
		m.ChannelID = sql.NullString{String: sc.ChannelID(), Valid: true}
	case scope.TypeConversation:
		m.ConversationID = sql.NullString{String: sc.ConversationID(), Valid: true}
	}
}

// SplitMessage cuts text into chunks Telegram accepts, preferring line breaks.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		cut := limit
		if i := strings.LastIndex(string(runes[:limit]), "\n"); i > 0 {
			cut = utf8.RuneCountInString(string(runes[:limit])[:i])
		}
		if chunk := strings.TrimRight(string(runes[:cut]), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimLeft(string(runes[cut:]), "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// member resolves the sender's workspace membership, enrolling them when
// auto-enrollment is on. Returns nil, nil for a non-member.
func (d HandlerDeps) member(ctx context.Context, u *models.User) (*database.Member, error) {
	ws := d.Config.Telegram.WorkspaceID
	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if d.Config.Telegram.AutoEnroll {
		return d.Store.EnsureMember(dbCtx, ws, UserKey(u), DisplayName(u))
	}
	return d.Store.GetMember(dbCtx, ws, UserKey(u))
}

// lookup resolves a Telegram message of the chat to its stored copy.
// Returns nil, nil if it was never stored.
func (d HandlerDeps) lookup(ctx context.Context, chat models.Chat, messageID int) (*database.Message, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	return d.Store.GetMessageByExternalID(dbCtx, d.Config.Telegram.WorkspaceID, ChatScope(chat), ExternalID(messageID))
}

// errorText picks the user-facing text for a failed assistant call.
func (d HandlerDeps) errorText(err error) string {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return d.Config.Telegram.Messages.Unauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return d.Config.Telegram.Messages.UnknownMessage
	default:
		return d.Config.Telegram.Messages.GeneralError
	}
}

// sendText sends text to the chat, split to fit, optionally as a reply.
// It returns the first sent message.
func (d HandlerDeps) sendText(ctx context.Context, b *bot.Bot, chatID int64, replyTo int, text string) (*models.Message, error) {
	var first *models.Message
	for i, chunk := range SplitMessage(text, maxMessageLength) {
		params := &bot.SendMessageParams{ChatID: chatID, Text: chunk}
		if i == 0 && replyTo > 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
		sent, err := b.SendMessage(sendCtx, params)
		cancel()
		if err != nil {
			d.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID, "chunk", i)
			return first, err
		}
		if first == nil {
			first = sent
		}
	}
	return first, nil
}

// sendGenerated sends model output, which is Markdown, as plain text.
func (d HandlerDeps) sendGenerated(ctx context.Context, b *bot.Bot, chatID int64, replyTo int, text string) (*models.Message, error) {
	if rendered := plainText.SanitizeText(text); rendered != "" {
		text = rendered
	}
	return d.sendText(ctx, b, chatID, replyTo, text)
}

// notify sends a short status or error text, logging failures.
func (d HandlerDeps) notify(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, _ = d.sendText(ctx, b, chatID, 0, text)
}

// keepTyping shows the typing indicator, which Telegram expires after a few
// seconds, until the returned stop function is called.
func keepTyping(ctx context.Context, b *bot.Bot, chatID int64) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return cancel
}
