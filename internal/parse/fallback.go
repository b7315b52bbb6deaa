package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/threadwise/internal/chatctx"
	"github.com/edgard/threadwise/internal/scope"
)

// SummaryErrorText is the last-resort summary when even the fallback cannot be built.
const SummaryErrorText = "**Error**: Unable to generate summary. Please try again later."

const fallbackSummaryTemplate = `**AI Summary Generation Failed**

**Participants**: %s

**Message Count**: %d messages

**Time Range**: %s

**Status**: AI summarization temporarily unavailable. Please try again later.

**Key Discussion Points**:
• Unable to analyze due to AI service unavailability

**Decisions Made**: Unable to determine

**Action Items**: Unable to extract

**Next Steps**: Please retry summary generation when AI service is restored.`

// FallbackSummary builds the deterministic summary shown when generation
// fails: participants, message count and time range of the window.
func FallbackSummary(window chatctx.Window) string {
	timeRange := "No messages"
	if len(window) > 0 {
		first, last := window.TimeRange()
		timeRange = formatTime(first) + " - " + formatTime(last)
	}
	return fmt.Sprintf(fallbackSummaryTemplate,
		strings.Join(window.Participants(), ", "),
		len(window),
		timeRange)
}

// EmptySummary is returned for a scope without messages.
func EmptySummary(t scope.Type) string {
	label := t.Label()
	return fmt.Sprintf("**%s Summary**\n\nNo messages found in this %s.", label, strings.ToLower(label))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}
