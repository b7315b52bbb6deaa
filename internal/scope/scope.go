// Package scope models the conversational context a request operates over:
// a thread, a channel, or a direct conversation.
package scope

import (
	"fmt"
	"strconv"
)

// Type identifies the kind of scope. Its string form is the value persisted
// as the summary scope type.
type Type string

const (
	TypeNone         Type = ""
	TypeThread       Type = "thread"
	TypeChannel      Type = "channel"
	TypeConversation Type = "conversation"
)

// Label returns the capitalized name used in prompts and summary headers.
func (t Type) Label() string {
	switch t {
	case TypeThread:
		return "Thread"
	case TypeChannel:
		return "Channel"
	case TypeConversation:
		return "Conversation"
	default:
		return "Discussion"
	}
}

// ParseType converts a persisted or user-supplied scope type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeThread, TypeChannel, TypeConversation:
		return Type(s), nil
	default:
		return TypeNone, fmt.Errorf("unknown scope type %q", s)
	}
}

// Scope is a tagged union: exactly one of Thread, Channel or Conversation.
// The zero value is the empty scope, for which context windows are empty.
type Scope struct {
	typ      Type
	threadID int64
	id       string
}

// Thread returns the scope of the replies to the given parent message.
func Thread(parentMessageID int64) Scope {
	return Scope{typ: TypeThread, threadID: parentMessageID}
}

// Channel returns the scope of top-level messages in a channel.
func Channel(channelID string) Scope {
	return Scope{typ: TypeChannel, id: channelID}
}

// Conversation returns the scope of every message of a direct conversation.
func Conversation(conversationID string) Scope {
	return Scope{typ: TypeConversation, id: conversationID}
}

// Resolve builds a Scope from the optional identifiers a caller supplies,
// applying the precedence thread > channel > conversation. When none is
// given the empty scope is returned.
func Resolve(threadID int64, channelID, conversationID string) Scope {
	switch {
	case threadID > 0:
		return Thread(threadID)
	case channelID != "":
		return Channel(channelID)
	case conversationID != "":
		return Conversation(conversationID)
	default:
		return Scope{}
	}
}

// Type returns the kind of the scope.
func (s Scope) Type() Type { return s.typ }

// IsZero reports whether the scope is empty.
func (s Scope) IsZero() bool { return s.typ == TypeNone }

// ThreadID returns the parent message id of a thread scope, or 0.
func (s Scope) ThreadID() int64 {
	if s.typ != TypeThread {
		return 0
	}
	return s.threadID
}

// ChannelID returns the channel id of a channel scope, or "".
func (s Scope) ChannelID() string {
	if s.typ != TypeChannel {
		return ""
	}
	return s.id
}

// ConversationID returns the conversation id of a conversation scope, or "".
func (s Scope) ConversationID() string {
	if s.typ != TypeConversation {
		return ""
	}
	return s.id
}

// ID returns the opaque scope identifier used as the summary key.
func (s Scope) ID() string {
	if s.typ == TypeThread {
		return strconv.FormatInt(s.threadID, 10)
	}
	return s.id
}

// FromKey rebuilds a Scope from a persisted (type, id) pair.
func FromKey(t Type, id string) (Scope, error) {
	if id == "" {
		return Scope{}, fmt.Errorf("empty %s id", t)
	}
	switch t {
	case TypeThread:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return Scope{}, fmt.Errorf("invalid thread id %q", id)
		}
		return Thread(n), nil
	case TypeChannel:
		return Channel(id), nil
	case TypeConversation:
		return Conversation(id), nil
	default:
		return Scope{}, fmt.Errorf("unknown scope type %q", t)
	}
}

func (s Scope) String() string {
	if s.IsZero() {
		return "none"
	}
	return string(s.typ) + ":" + s.ID()
}
