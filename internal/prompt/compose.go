// Package prompt composes the instruction strings sent to the generation
// backend. Every function here is pure: identical inputs yield identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/edgard/threadwise/internal/chatctx"
	"github.com/edgard/threadwise/internal/richtext"
	"github.com/edgard/threadwise/internal/scope"
)

// Kind selects the template.
type Kind int

const (
	KindSuggestions Kind = iota + 1
	KindAutoResponse
	KindTone
	KindSummary
)

func (k Kind) String() string {
	switch k {
	case KindSuggestions:
		return "suggestions"
	case KindAutoResponse:
		return "auto_response"
	case KindTone:
		return "tone"
	case KindSummary:
		return "summary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is the utterance a prompt is about: the message being replied to, or
// a draft for tone analysis. Text may still be rich text.
type Target struct {
	Author string
	Text   string
}

// TargetFromEntry adapts a window entry.
func TargetFromEntry(e chatctx.Entry) *Target {
	return &Target{Author: e.Author, Text: e.Text}
}

// Options carries the few template parameters that are not part of the
// window or target.
type Options struct {
	// AssistantName is the persona used by the auto-response template.
	AssistantName string
	// ScopeType picks the summary variant and its discussion label.
	ScopeType scope.Type
}

// Compose renders the prompt of the given kind. A nil target is treated as an
// empty utterance; KindTone ignores the window.
func Compose(kind Kind, window chatctx.Window, target *Target, opts Options) string {
	var t Target
	if target != nil {
		t = *target
	}
	if t.Author == "" {
		t.Author = chatctx.UnknownAuthor
	}
	text := richtext.PlainText(t.Text)

	var sb strings.Builder
	switch kind {
	case KindSuggestions:
		fmt.Fprintf(&sb, SuggestionsInstruction, Transcript(window), t.Author)
		sb.WriteString(quote(text))
		sb.WriteString(SuggestionsRequirements)

	case KindAutoResponse:
		name := opts.AssistantName
		if name == "" {
			name = "the assistant"
		}
		fmt.Fprintf(&sb, AutoResponseInstruction, name, Transcript(window), t.Author)
		sb.WriteString(quote(text))
		sb.WriteString(AutoResponseRequirements)

	case KindTone:
		sb.WriteString(ToneInstruction)
		sb.WriteString(text)
		sb.WriteString(`"""`)

	case KindSummary:
		return ComposeSummary(window, opts.ScopeType)
	}
	return sb.String()
}

// ComposeSummary renders the summary prompt for a full window.
func ComposeSummary(window chatctx.Window, scopeType scope.Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, SummaryInstruction,
		strings.Join(window.Participants(), ", "),
		len(window),
		scopeType.Label(),
		Transcript(window))
	if scopeType == scope.TypeConversation {
		sb.WriteString(SummaryParticipantsSection)
	}
	sb.WriteString(SummarySections)
	return sb.String()
}

// Transcript formats a window as "{author}: {text}" lines, oldest first.
func Transcript(window chatctx.Window) string {
	lines := make([]string, 0, len(window))
	for _, e := range window {
		text := e.Text
		if text == "" {
			text = richtext.PlainText(e.Body)
		}
		lines = append(lines, e.Author+": "+text)
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + s + `"`
}
