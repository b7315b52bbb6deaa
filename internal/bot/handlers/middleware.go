// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/metrics"
	"github.com/edgard/threadwise/internal/scope"
)

type ctxKey int

const storedMessageKey ctxKey = iota

// StoredMessage returns the message Ingest stored for the current update, or nil.
func StoredMessage(ctx context.Context) *database.Message {
	m, _ := ctx.Value(storedMessageKey).(*database.Message)
	return m
}

// Ingest stores every non-command message from a workspace member before the
// handlers run. Replies join the thread of the message they answer.
func Ingest(deps HandlerDeps) tgbot.Middleware {
	log := deps.Logger.With("middleware", "Ingest")

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil || msg.From.IsBot || IsCommand(msg) || MessageText(msg) == "" {
				next(ctx, b, update)
				return
			}

			stored, err := deps.ingest(ctx, msg)
			switch {
			case err != nil:
				log.ErrorContext(ctx, "Failed to ingest message", "error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
			case stored == nil:
				log.DebugContext(ctx, "Skipping message from non-member", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
			default:
				ctx = context.WithValue(ctx, storedMessageKey, stored)
			}

			next(ctx, b, update)
		}
	}
}

func (d HandlerDeps) ingest(ctx context.Context, msg *models.Message) (*database.Message, error) {
	member, err := d.member(ctx, msg.From)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}
	if member == nil {
		return nil, nil
	}

	chat := ChatScope(msg.Chat)
	stored := &database.Message{
		WorkspaceID: d.Config.Telegram.WorkspaceID,
		MemberID:    member.ID,
		Body:        MessageText(msg),
		ExternalID:  sql.NullString{String: ExternalID(msg.ID), Valid: true},
		CreatedAt:   time.Unix(int64(msg.Date), 0).UTC(),
	}
	applyChatScope(stored, chat)

	if msg.ReplyToMessage != nil {
		parent, err := d.lookup(ctx, msg.Chat, msg.ReplyToMessage.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve replied message: %w", err)
		}
		if parent != nil {
			stored.ParentMessageID = sql.NullInt64{Int64: threadRoot(parent), Valid: true}
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if err := d.Store.SaveMessage(dbCtx, stored); err != nil {
		return nil, err
	}

	scopeType := string(chat.Type())
	if stored.ParentMessageID.Valid {
		scopeType = string(scope.TypeThread)
	}
	metrics.MessagesIngested.WithLabelValues("telegram", scopeType).Inc()
	return stored, nil
}

// RequireMember creates a middleware that rejects senders who are not workspace
// members. With auto-enrollment on, senders are enrolled instead.
func RequireMember(deps HandlerDeps) tgbot.Middleware {
	log := deps.Logger.With("middleware", "RequireMember")

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			member, err := deps.member(ctx, update.Message.From)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check membership", "error", err, "chat_id", chatID)
				deps.notify(ctx, b, chatID, deps.Config.Telegram.Messages.GeneralError)
				return
			}
			if member == nil {
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", update.Message.From.ID, "chat_id", chatID)
				deps.notify(ctx, b, chatID, deps.Config.Telegram.Messages.Unauthorized)
				return
			}

			next(ctx, b, update)
		}
	}
}
