package api

import "time"

type messageResponse struct {
	ID              int64     `json:"id"`
	ChannelID       string    `json:"channel_id,omitempty"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	ParentMessageID int64     `json:"parent_message_id,omitempty"`
	MemberID        int64     `json:"member_id"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at"`
}
