// Package chatctx builds the context windows fed to the generation backend:
// bounded, oldest-first slices of a scope's messages with resolved author names.
package chatctx

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/richtext"
	"github.com/edgard/threadwise/internal/scope"
)

const (
	// DefaultLimit bounds a window when the caller does not pass a limit.
	DefaultLimit = 500

	// UnknownAuthor replaces the display name of an author that cannot be resolved.
	UnknownAuthor = "Unknown User"
)

// MessageReader is the read side of the message store used to build windows.
type MessageReader interface {
	GetMessagesByScope(ctx context.Context, workspaceID string, s scope.Scope, beforeID int64, limit int) ([]*database.Message, error)
	GetMessageByID(ctx context.Context, id int64) (*database.Message, error)
	GetUserByMemberID(ctx context.Context, memberID int64) (*database.User, error)
}

// Entry is one message of a window.
type Entry struct {
	MessageID int64
	MemberID  int64
	Author    string
	// Body is the stored rich-text body; Text its plain-text rendering.
	Body      string
	Text      string
	CreatedAt time.Time
}

// Window is an ordered, oldest-first sequence of entries.
type Window []Entry

// Participants returns the distinct author names in first-seen order.
func (w Window) Participants() []string {
	seen := make(map[string]struct{}, len(w))
	var names []string
	for _, e := range w {
		if _, ok := seen[e.Author]; ok {
			continue
		}
		seen[e.Author] = struct{}{}
		names = append(names, e.Author)
	}
	return names
}

// TimeRange returns the creation time of the first and last entries.
func (w Window) TimeRange() (first, last time.Time) {
	if len(w) == 0 {
		return time.Time{}, time.Time{}
	}
	return w[0].CreatedAt, w[len(w)-1].CreatedAt
}

// Builder assembles context windows from a MessageReader.
type Builder struct {
	reader MessageReader
	logger *slog.Logger
}

// NewBuilder creates a Builder reading from reader.
func NewBuilder(reader MessageReader, log *slog.Logger) *Builder {
	if log == nil {
		log = logger.Discard()
	}
	return &Builder{
		reader: reader,
		logger: log.With("component", "context_builder"),
	}
}

// Build returns up to limit of the most recent messages of the scope, oldest
// first. Thread windows always start with the thread root, so they may hold
// limit+1 entries. A zero scope yields an empty window. A non-positive limit
// means DefaultLimit.
func (b *Builder) Build(ctx context.Context, workspaceID string, s scope.Scope, limit int) (Window, error) {
	return b.build(ctx, workspaceID, s, 0, limit)
}

// BuildBefore is Build restricted to messages older than the message
// beforeID, the live-chat path where beforeID is the target message. The
// thread root is still prepended unless it is the target itself.
func (b *Builder) BuildBefore(ctx context.Context, workspaceID string, s scope.Scope, beforeID int64, limit int) (Window, error) {
	return b.build(ctx, workspaceID, s, beforeID, limit)
}

func (b *Builder) build(ctx context.Context, workspaceID string, s scope.Scope, beforeID int64, limit int) (Window, error) {
	if s.IsZero() {
		return Window{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	msgs, err := b.reader.GetMessagesByScope(ctx, workspaceID, s, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %s: %w", s, err)
	}
	slices.Reverse(msgs)

	if s.Type() == scope.TypeThread && s.ThreadID() != beforeID {
		root, err := b.reader.GetMessageByID(ctx, s.ThreadID())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch thread root %d: %w", s.ThreadID(), err)
		}
		if root != nil && root.WorkspaceID == workspaceID {
			msgs = append([]*database.Message{root}, msgs...)
		} else {
			b.logger.WarnContext(ctx, "Thread root not found, window starts at the first reply", "thread_id", s.ThreadID())
		}
	}

	authors := make(map[int64]string)
	seen := make(map[int64]struct{}, len(msgs))
	window := make(Window, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		window = append(window, b.entry(ctx, m, authors))
	}

	b.logger.DebugContext(ctx, "Built context window",
		"workspace_id", workspaceID,
		"scope", s.String(),
		"before_id", beforeID,
		"limit", limit,
		"entries", len(window))
	return window, nil
}

// Entry enriches a single message, typically the target of a request.
func (b *Builder) Entry(ctx context.Context, m *database.Message) Entry {
	return b.entry(ctx, m, nil)
}

// entry resolves the author through the memo when one is given. Lookup
// failures degrade to UnknownAuthor.
func (b *Builder) entry(ctx context.Context, m *database.Message, memo map[int64]string) Entry {
	name, ok := memo[m.MemberID]
	if !ok {
		name = b.authorName(ctx, m.MemberID)
		if memo != nil {
			memo[m.MemberID] = name
		}
	}
	return Entry{
		MessageID: m.ID,
		MemberID:  m.MemberID,
		Author:    name,
		Body:      m.Body,
		Text:      richtext.PlainText(m.Body),
		CreatedAt: m.CreatedAt,
	}
}

func (b *Builder) authorName(ctx context.Context, memberID int64) string {
	user, err := b.reader.GetUserByMemberID(ctx, memberID)
	if err != nil {
		b.logger.WarnContext(ctx, "Author lookup failed", "member_id", memberID, "error", err)
		return UnknownAuthor
	}
	if user == nil || user.Name == "" {
		return UnknownAuthor
	}
	return user.Name
}
