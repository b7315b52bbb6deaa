package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/threadwise/internal/scope"
)

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		threadID       int64
		channelID      string
		conversationID string
		wantType       scope.Type
		wantID         string
	}{
		{name: "thread wins over everything", threadID: 7, channelID: "c1", conversationID: "d1", wantType: scope.TypeThread, wantID: "7"},
		{name: "channel wins over conversation", channelID: "c1", conversationID: "d1", wantType: scope.TypeChannel, wantID: "c1"},
		{name: "conversation alone", conversationID: "d1", wantType: scope.TypeConversation, wantID: "d1"},
		{name: "nothing supplied", wantType: scope.TypeNone, wantID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := scope.Resolve(tt.threadID, tt.channelID, tt.conversationID)
			assert.Equal(t, tt.wantType, s.Type())
			assert.Equal(t, tt.wantID, s.ID())
		})
	}
}

func TestScope_Accessors(t *testing.T) {
	t.Parallel()

	th := scope.Thread(42)
	assert.Equal(t, int64(42), th.ThreadID())
	assert.Empty(t, th.ChannelID())
	assert.Empty(t, th.ConversationID())

	ch := scope.Channel("general")
	assert.Zero(t, ch.ThreadID())
	assert.Equal(t, "general", ch.ChannelID())

	assert.True(t, scope.Scope{}.IsZero())
	assert.Equal(t, "channel:general", ch.String())
}

func TestFromKey(t *testing.T) {
	t.Parallel()

	s, err := scope.FromKey(scope.TypeThread, "12")
	require.NoError(t, err)
	assert.Equal(t, scope.Thread(12), s)

	_, err = scope.FromKey(scope.TypeThread, "abc")
	assert.Error(t, err)

	_, err = scope.FromKey(scope.TypeChannel, "")
	assert.Error(t, err)

	_, err = scope.ParseType("workspace")
	assert.Error(t, err)
}
