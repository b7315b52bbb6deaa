package database

import (
	"database/sql"
	"time"
)

// User is a person, the source of display names.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Member is a user's membership in a workspace. Messages are authored by members.
type Member struct {
	ID          int64     `db:"id"`
	WorkspaceID string    `db:"workspace_id"`
	UserID      string    `db:"user_id"`
	Role        string    `db:"role"`
	CreatedAt   time.Time `db:"created_at"`
}

// Message is a chat message. Exactly one of ChannelID and ConversationID is set;
// ParentMessageID is set for thread replies.
type Message struct {
	ID              int64          `db:"id"`
	WorkspaceID     string         `db:"workspace_id"`
	ChannelID       sql.NullString `db:"channel_id"`
	ConversationID  sql.NullString `db:"conversation_id"`
	ParentMessageID sql.NullInt64  `db:"parent_message_id"`
	MemberID        int64          `db:"member_id"`
	Body            string         `db:"body"`
	ExternalID      sql.NullString `db:"external_id"`
	CreatedAt       time.Time      `db:"created_at"`
	EditedAt        sql.NullTime   `db:"edited_at"`
}

// Summary is the persisted summary artifact of a scope. At most one row exists
// per (WorkspaceID, ScopeType, ScopeID).
type Summary struct {
	ID               int64     `db:"id"                json:"id"`
	WorkspaceID      string    `db:"workspace_id"      json:"workspace_id"`
	ScopeType        string    `db:"scope_type"        json:"scope_type"`
	ScopeID          string    `db:"scope_id"          json:"scope_id"`
	Summary          string    `db:"summary"           json:"summary"`
	MessageCount     int       `db:"message_count"     json:"message_count"`
	ParticipantCount int       `db:"participant_count" json:"participant_count"`
	GeneratedBy      int64     `db:"generated_by"      json:"generated_by"`
	GeneratedAt      time.Time `db:"generated_at"      json:"generated_at"`
}

const messageColumns = `id, workspace_id, channel_id, conversation_id, parent_message_id,
	member_id, body, external_id, created_at, edited_at`

const summaryColumns = `id, workspace_id, scope_type, scope_id, summary,
	message_count, participant_count, generated_by, generated_at`
