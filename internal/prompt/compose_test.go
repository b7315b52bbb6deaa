package prompt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/threadwise/internal/chatctx"
	"github.com/edgard/threadwise/internal/prompt"
	"github.com/edgard/threadwise/internal/scope"
)

func window() chatctx.Window {
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return chatctx.Window{
		{MessageID: 1, Author: "A", Text: "How's the feature?", CreatedAt: at},
		{MessageID: 2, Author: "B", Text: "Almost done", CreatedAt: at.Add(time.Minute)},
	}
}

func TestComposeSuggestions(t *testing.T) {
	t.Parallel()

	got := prompt.Compose(prompt.KindSuggestions, window(), &prompt.Target{Author: "B", Text: "Blocked on rate limits"}, prompt.Options{})

	for _, want := range []string{
		"A: How's the feature?",
		"B: Almost done",
		`The user B just said: "Blocked on rate limits"`,
		"Return ONLY a JSON array of 3 strings",
		"one informative, one questioning, one supportive",
	} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, "A: How's the feature?"), strings.Index(got, "B: Almost done"))
}

func TestComposeIsPure(t *testing.T) {
	t.Parallel()

	target := &prompt.Target{Author: "B", Text: `{"ops":[{"insert":"Blocked"}]}`}
	opts := prompt.Options{AssistantName: "Helper", ScopeType: scope.TypeThread}
	for _, kind := range []prompt.Kind{prompt.KindSuggestions, prompt.KindAutoResponse, prompt.KindTone, prompt.KindSummary} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()
			first := prompt.Compose(kind, window(), target, opts)
			second := prompt.Compose(kind, window(), target, opts)
			assert.Equal(t, first, second)
			assert.NotEmpty(t, first)
		})
	}
}

func TestComposeTone(t *testing.T) {
	t.Parallel()

	got := prompt.Compose(prompt.KindTone, window(), &prompt.Target{Text: "Fix this now."}, prompt.Options{})

	assert.True(t, strings.HasSuffix(got, `Message: """Fix this now."""`), got)
	assert.Contains(t, got, `"aggressive", "weak", "confusing", "neutral", or "friendly"`)
	assert.Contains(t, got, `"low-impact", "medium-impact", or "high-impact"`)
	assert.NotContains(t, got, "Almost done", "tone analysis works on the draft alone")
}

func TestComposeAutoResponse(t *testing.T) {
	t.Parallel()

	got := prompt.Compose(prompt.KindAutoResponse, window(), &prompt.Target{Author: "A", Text: "Any ETA?"}, prompt.Options{AssistantName: "Helper"})
	assert.Contains(t, got, "You are Helper")
	assert.Contains(t, got, `A just said: "Any ETA?"`)
	assert.Contains(t, got, "B: Almost done")

	anon := prompt.Compose(prompt.KindAutoResponse, nil, nil, prompt.Options{})
	assert.Contains(t, anon, `Unknown User just said: ""`)
}

func TestComposeSummary(t *testing.T) {
	t.Parallel()

	w := append(window(), chatctx.Entry{Author: "A", Text: "Great"})

	tests := []struct {
		scope        scope.Type
		label        string
		participants bool
	}{
		{scope.TypeThread, "Thread Discussion:", false},
		{scope.TypeChannel, "Channel Discussion:", false},
		{scope.TypeConversation, "Conversation Discussion:", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			t.Parallel()
			got := prompt.ComposeSummary(w, tt.scope)

			assert.Contains(t, got, "Participants: A, B\n")
			assert.Contains(t, got, "Total Messages: 3\n")
			assert.Contains(t, got, tt.label)
			assert.Contains(t, got, "A: How's the feature?\nB: Almost done\nA: Great")
			for _, section := range []string{"**Key Discussion Points**", "**Decisions Made**", "**Action Items**", "**Next Steps**"} {
				assert.Contains(t, got, section)
			}
			assert.Contains(t, got, `"None identified"`)
			assert.Equal(t, tt.participants, strings.Contains(got, "**Participants**"))
			assert.Equal(t, got, prompt.Compose(prompt.KindSummary, w, nil, prompt.Options{ScopeType: tt.scope}))
		})
	}
}

func TestTranscriptFallsBackToBody(t *testing.T) {
	t.Parallel()

	w := chatctx.Window{
		{Author: "A", Body: `{"ops":[{"insert":"from "},{"insert":"body\n"}]}`},
		{Author: "B", Body: "not json {"},
	}
	assert.Equal(t, "A: from body\nB: not json {", prompt.Transcript(w))
}
