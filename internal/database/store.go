package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/scope"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// EnsureMember upserts the user's display name and returns the user's
	// membership in the workspace, creating it when missing.
	EnsureMember(ctx context.Context, workspaceID, userID, name string) (*Member, error)

	// GetMember returns the membership of userID in workspaceID. Returns nil, nil if not found.
	GetMember(ctx context.Context, workspaceID, userID string) (*Member, error)

	// SaveMessage inserts a new message record and sets its ID.
	SaveMessage(ctx context.Context, message *Message) error

	// SetExternalID links a stored message to its front-end message id.
	SetExternalID(ctx context.Context, messageID int64, externalID string) error

	// GetMessageByID returns a message by id. Returns nil, nil if not found.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// GetMessageByExternalID resolves a front-end message id within a scope.
	// Returns nil, nil if not found.
	GetMessageByExternalID(ctx context.Context, workspaceID string, s scope.Scope, externalID string) (*Message, error)

	// GetMessagesByScope returns up to limit messages of the scope, newest first.
	// A positive beforeID restricts the page to messages with a smaller id.
	GetMessagesByScope(ctx context.Context, workspaceID string, s scope.Scope, beforeID int64, limit int) ([]*Message, error)

	// GetUserByMemberID resolves a message author. Returns nil, nil if not found.
	GetUserByMemberID(ctx context.Context, memberID int64) (*User, error)

	// SaveSummary upserts the summary artifact of a scope on behalf of a workspace member.
	SaveSummary(ctx context.Context, in SummaryUpsert) (int64, error)

	// GetSummary returns the summary artifact of a scope. Returns nil, nil if not found.
	GetSummary(ctx context.Context, workspaceID string, scopeType scope.Type, scopeID string) (*Summary, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

// SaveMessage inserts a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.WorkspaceID == "" {
		return fmt.Errorf("message must have a workspace_id")
	}
	if message.ChannelID.Valid == message.ConversationID.Valid {
		return fmt.Errorf("message must belong to exactly one of channel or conversation")
	}
	if message.MemberID == 0 {
		return fmt.Errorf("message must have a non-zero member_id")
	}
	if message.Body == "" {
		return fmt.Errorf("message must have non-empty body")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	} else {
		message.CreatedAt = message.CreatedAt.UTC()
	}

	query := `
        INSERT INTO messages (workspace_id, channel_id, conversation_id, parent_message_id,
                              member_id, body, external_id, created_at, edited_at)
        VALUES (:workspace_id, :channel_id, :conversation_id, :parent_message_id,
                :member_id, :body, :external_id, :created_at, :edited_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "workspace_id", message.WorkspaceID, "member_id", message.MemberID, "error", err)
		return fmt.Errorf("failed to save message (workspace %s, member %d): %w", message.WorkspaceID, message.MemberID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted message id: %w", err)
	}
	message.ID = id

	s.logger.DebugContext(ctx, "Message saved successfully", "message_id", message.ID, "workspace_id", message.WorkspaceID)
	return nil
}

// SetExternalID records the front-end id of a message sent after it was stored.
func (s *sqlxStore) SetExternalID(ctx context.Context, messageID int64, externalID string) error {
	if externalID == "" {
		return fmt.Errorf("external id must not be empty")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE messages SET external_id = ? WHERE id = ?`, externalID, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error setting external ID", "message_id", messageID, "external_id", externalID, "error", err)
		return fmt.Errorf("failed to set external id of message %d: %w", messageID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message %d not found", messageID)
	}
	return nil
}

// GetMessageByID returns a message by id. Returns nil, nil if not found.
func (s *sqlxStore) GetMessageByID(ctx context.Context, id int64) (*Message, error) {
	if id <= 0 {
		return nil, fmt.Errorf("message id must be positive")
	}

	var msg Message
	err := s.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No message found", "message_id", id)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting message by ID", "message_id", id, "error", err)
		return nil, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	return &msg, nil
}

// GetMessageByExternalID resolves a front-end message id within a channel or conversation.
func (s *sqlxStore) GetMessageByExternalID(ctx context.Context, workspaceID string, sc scope.Scope, externalID string) (*Message, error) {
	var column, key string
	switch sc.Type() {
	case scope.TypeChannel:
		column, key = "channel_id", sc.ChannelID()
	case scope.TypeConversation:
		column, key = "conversation_id", sc.ConversationID()
	default:
		return nil, fmt.Errorf("external ids are resolved per channel or conversation, got %s", sc)
	}

	var msg Message
	query := `SELECT ` + messageColumns + ` FROM messages
	          WHERE workspace_id = ? AND ` + column + ` = ? AND external_id = ?`
	err := s.db.GetContext(ctx, &msg, query, workspaceID, key, externalID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting message by external ID", "scope", sc.String(), "external_id", externalID, "error", err)
		return nil, fmt.Errorf("failed to get message %s in %s: %w", externalID, sc, err)
	}
	return &msg, nil
}

// GetMessagesByScope fetches a page of the scope's messages, newest first.
// Ties on created_at are broken by id so pages are stable.
func (s *sqlxStore) GetMessagesByScope(ctx context.Context, workspaceID string, sc scope.Scope, beforeID int64, limit int) ([]*Message, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		filter string
		arg    any
	)
	switch sc.Type() {
	case scope.TypeThread:
		filter, arg = "parent_message_id = ?", sc.ThreadID()
	case scope.TypeChannel:
		filter, arg = "channel_id = ? AND parent_message_id IS NULL", sc.ChannelID()
	case scope.TypeConversation:
		filter, arg = "conversation_id = ?", sc.ConversationID()
	default:
		return nil, nil
	}

	if beforeID <= 0 {
		beforeID = int64(^uint64(0) >> 1)
	}

	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE workspace_id = ? AND ` + filter + ` AND id < ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `

	var messages []*Message
	err := s.db.SelectContext(ctx, &messages, query, workspaceID, arg, beforeID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages", "scope", sc.String(), "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting messages by scope", "scope", sc.String(), "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get messages for %s: %w", sc, err)
	}

	s.logger.DebugContext(ctx, "Fetched messages successfully", "scope", sc.String(), "count", len(messages))
	return messages, nil
}
