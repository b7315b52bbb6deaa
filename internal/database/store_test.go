package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/scope"
)

const workspace = "ws-1"

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "threadwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, logger.Discard())
}

func addMessage(t *testing.T, store database.Store, msg database.Message) *database.Message {
	t.Helper()
	if msg.WorkspaceID == "" {
		msg.WorkspaceID = workspace
	}
	require.NoError(t, store.SaveMessage(context.Background(), &msg))
	return &msg
}

func channel(id string) sql.NullString { return sql.NullString{String: id, Valid: true} }

func parent(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }

func bodies(msgs []*database.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Body)
	}
	return out
}

func TestEnsureMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.EnsureMember(ctx, workspace, "u1", "Alice")
	require.NoError(t, err)
	again, err := store.EnsureMember(ctx, workspace, "u1", "Alice B.")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "membership is created once")

	user, err := store.GetUserByMemberID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice B.", user.Name)

	missing, err := store.GetUserByMemberID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	other, err := store.GetMember(ctx, "ws-other", "u1")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestGetMessagesByScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	alice, err := store.EnsureMember(ctx, workspace, "alice", "Alice")
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	root := addMessage(t, store, database.Message{ChannelID: channel("general"), MemberID: alice.ID, Body: "root", CreatedAt: base})
	addMessage(t, store, database.Message{ChannelID: channel("general"), MemberID: alice.ID, Body: "top-2", CreatedAt: base.Add(time.Minute)})
	addMessage(t, store, database.Message{ChannelID: channel("general"), ParentMessageID: parent(root.ID), MemberID: alice.ID, Body: "reply-1", CreatedAt: base.Add(2 * time.Minute)})
	addMessage(t, store, database.Message{ChannelID: channel("general"), ParentMessageID: parent(root.ID), MemberID: alice.ID, Body: "reply-2", CreatedAt: base.Add(3 * time.Minute)})
	// Same timestamp as reply-2: id breaks the tie.
	tie := addMessage(t, store, database.Message{ChannelID: channel("general"), ParentMessageID: parent(root.ID), MemberID: alice.ID, Body: "reply-3", CreatedAt: base.Add(3 * time.Minute)})
	addMessage(t, store, database.Message{ConversationID: channel("dm-1"), MemberID: alice.ID, Body: "dm", CreatedAt: base})

	tests := []struct {
		name     string
		scope    scope.Scope
		beforeID int64
		limit    int
		want     []string
	}{
		{"channel is top-level only", scope.Channel("general"), 0, 10, []string{"top-2", "root"}},
		{"thread replies newest first", scope.Thread(root.ID), 0, 10, []string{"reply-3", "reply-2", "reply-1"}},
		{"thread limited", scope.Thread(root.ID), 0, 2, []string{"reply-3", "reply-2"}},
		{"thread before target", scope.Thread(root.ID), tie.ID, 10, []string{"reply-2", "reply-1"}},
		{"conversation", scope.Conversation("dm-1"), 0, 10, []string{"dm"}},
		{"unknown channel", scope.Channel("random"), 0, 10, []string{}},
		{"empty scope", scope.Scope{}, 0, 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetMessagesByScope(ctx, workspace, tt.scope, tt.beforeID, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bodies(got))
		})
	}

	_, err = store.GetMessagesByScope(ctx, workspace, scope.Channel("general"), 0, 0)
	assert.Error(t, err)
}

func TestSaveMessageValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name string
		msg  *database.Message
	}{
		{"nil", nil},
		{"no scope", &database.Message{WorkspaceID: workspace, MemberID: 1, Body: "x"}},
		{"two scopes", &database.Message{WorkspaceID: workspace, ChannelID: channel("a"), ConversationID: channel("b"), MemberID: 1, Body: "x"}},
		{"no body", &database.Message{WorkspaceID: workspace, ChannelID: channel("a"), MemberID: 1}},
		{"no member", &database.Message{WorkspaceID: workspace, ChannelID: channel("a"), Body: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.SaveMessage(ctx, tt.msg))
		})
	}
}

func TestGetMessageByExternalID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	m, err := store.EnsureMember(ctx, workspace, "alice", "Alice")
	require.NoError(t, err)
	saved := addMessage(t, store, database.Message{
		ChannelID:  channel("tg:-100"),
		MemberID:   m.ID,
		Body:       "hello",
		ExternalID: sql.NullString{String: "42", Valid: true},
	})

	got, err := store.GetMessageByExternalID(ctx, workspace, scope.Channel("tg:-100"), "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)

	got, err = store.GetMessageByExternalID(ctx, workspace, scope.Channel("tg:-100"), "43")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = store.GetMessageByExternalID(ctx, workspace, scope.Thread(saved.ID), "42")
	assert.Error(t, err)

	byID, err := store.GetMessageByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "hello", byID.Body)
}

func TestSetExternalID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	m, err := store.EnsureMember(ctx, workspace, "bot", "Bot")
	require.NoError(t, err)
	reply := addMessage(t, store, database.Message{ChannelID: channel("tg:-100"), MemberID: m.ID, Body: "sure"})

	require.NoError(t, store.SetExternalID(ctx, reply.ID, "77"))
	got, err := store.GetMessageByExternalID(ctx, workspace, scope.Channel("tg:-100"), "77")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, reply.ID, got.ID)

	assert.Error(t, store.SetExternalID(ctx, reply.ID+100, "78"))
	assert.Error(t, store.SetExternalID(ctx, reply.ID, ""))
}

func TestSaveSummaryUpsertsInPlace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.EnsureMember(ctx, workspace, "alice", "Alice")
	require.NoError(t, err)
	bob, err := store.EnsureMember(ctx, workspace, "bob", "Bob")
	require.NoError(t, err)

	in := database.SummaryUpsert{
		WorkspaceID:      workspace,
		ScopeType:        scope.TypeChannel,
		ScopeID:          "general",
		Summary:          "first",
		MessageCount:     2,
		ParticipantCount: 1,
		RequesterUserID:  "alice",
	}
	firstID, err := store.SaveSummary(ctx, in)
	require.NoError(t, err)

	in.Summary = "second"
	in.MessageCount = 5
	in.ParticipantCount = 2
	in.RequesterUserID = "bob"
	secondID, err := store.SaveSummary(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	got, err := store.GetSummary(ctx, workspace, scope.TypeChannel, "general")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Summary)
	assert.Equal(t, 5, got.MessageCount)
	assert.Equal(t, 2, got.ParticipantCount)
	assert.Equal(t, bob.ID, got.GeneratedBy)

	// A different scope type with the same id is a separate artifact.
	in.ScopeType = scope.TypeConversation
	otherID, err := store.SaveSummary(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, otherID)
}

func TestSaveSummaryConcurrentWritersKeepOneRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "threadwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, logger.Discard())

	_, err = store.EnsureMember(ctx, workspace, "alice", "Alice")
	require.NoError(t, err)

	const writers = 8
	written := make(map[string]bool, writers)
	ids := make([]int64, writers)

	var g errgroup.Group
	for i := range writers {
		summary := fmt.Sprintf("version %d", i)
		written[summary] = true
		g.Go(func() error {
			id, err := store.SaveSummary(ctx, database.SummaryUpsert{
				WorkspaceID:      workspace,
				ScopeType:        scope.TypeThread,
				ScopeID:          "42",
				Summary:          summary,
				MessageCount:     i,
				ParticipantCount: 1,
				RequesterUserID:  "alice",
			})
			ids[i] = id
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every writer upserts the same artifact")
	}

	var rows int
	require.NoError(t, db.GetContext(ctx, &rows,
		`SELECT COUNT(*) FROM summaries WHERE workspace_id = ? AND scope_type = ? AND scope_id = ?`,
		workspace, string(scope.TypeThread), "42"))
	assert.Equal(t, 1, rows)

	got, err := store.GetSummary(ctx, workspace, scope.TypeThread, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, written[got.Summary], "stored value %q is one of the writes", got.Summary)
	// Fields come from a single write, never a mix of two.
	assert.Equal(t, fmt.Sprintf("version %d", got.MessageCount), got.Summary)
}

func TestSaveSummaryUnauthorized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.EnsureMember(ctx, workspace, "alice", "Alice")
	require.NoError(t, err)
	_, err = store.EnsureMember(ctx, "ws-other", "mallory", "Mallory")
	require.NoError(t, err)

	in := database.SummaryUpsert{
		WorkspaceID:     workspace,
		ScopeType:       scope.TypeThread,
		ScopeID:         "7",
		Summary:         "original",
		RequesterUserID: "alice",
	}
	_, err = store.SaveSummary(ctx, in)
	require.NoError(t, err)

	for _, requester := range []string{"mallory", "", "nobody"} {
		in.Summary = "overwritten"
		in.RequesterUserID = requester
		_, err = store.SaveSummary(ctx, in)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, "requester %q", requester)
	}

	got, err := store.GetSummary(ctx, workspace, scope.TypeThread, "7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "original", got.Summary)

	in.ScopeID = "8"
	in.RequesterUserID = "mallory"
	_, err = store.SaveSummary(ctx, in)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	none, err := store.GetSummary(ctx, workspace, scope.TypeThread, "8")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}
