// Package parse extracts structured results from raw model text and builds
// the deterministic fallbacks used when generation or validation fails.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/edgard/threadwise/internal/apperr"
)

// SuggestionCount is the exact number of suggestions a valid answer holds.
const SuggestionCount = 3

// FallbackSuggestions are returned whenever the model's suggestions do not validate.
var FallbackSuggestions = []string{
	"Thanks for sharing that!",
	"Could you tell me more about this?",
	"That's interesting. What's your next step?",
}

var openingFence = regexp.MustCompile("```json\\s*")

// StripCodeFence removes Markdown code fences (```json ... ```) and trims.
func StripCodeFence(raw string) string {
	s := openingFence.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Suggestions parses a JSON array of exactly three non-blank strings. On any
// failure it returns a copy of FallbackSuggestions and ok=false; it never fails.
func Suggestions(raw string) (suggestions []string, ok bool) {
	// *string so a JSON null element is seen instead of decoding to "".
	var parsed []*string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil || len(parsed) != SuggestionCount {
		return DefaultSuggestions(), false
	}
	suggestions = make([]string, 0, len(parsed))
	for _, p := range parsed {
		if p == nil || strings.TrimSpace(*p) == "" {
			return DefaultSuggestions(), false
		}
		suggestions = append(suggestions, *p)
	}
	return suggestions, true
}

// DefaultSuggestions returns a fresh copy of FallbackSuggestions.
func DefaultSuggestions() []string {
	out := make([]string, len(FallbackSuggestions))
	copy(out, FallbackSuggestions)
	return out
}

// Known tone and impact values.
var (
	Tones   = []string{"aggressive", "weak", "confusing", "neutral", "friendly"}
	Impacts = []string{"low-impact", "medium-impact", "high-impact"}
)

// Tone is the tone/impact classification of a draft.
type Tone struct {
	Tone   string `json:"tone"`
	Impact string `json:"impact"`
}

// ParseTone parses a {"tone","impact"} object. Both fields must be non-empty
// strings. With strict set, values must also belong to Tones and Impacts.
// A nil result means "no tone available".
func ParseTone(raw string, strict bool) *Tone {
	var t Tone
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &t); err != nil {
		return nil
	}
	t.Tone = strings.TrimSpace(t.Tone)
	t.Impact = strings.TrimSpace(t.Impact)
	if t.Tone == "" || t.Impact == "" {
		return nil
	}
	if strict && (!contains(Tones, strings.ToLower(t.Tone)) || !contains(Impacts, strings.ToLower(t.Impact))) {
		return nil
	}
	return &t
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// AutoResponse returns the trimmed reply text. An empty reply cannot be posted
// and is reported as malformed output.
func AutoResponse(raw string) (string, error) {
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return "", fmt.Errorf("%w: empty auto-response", apperr.ErrMalformedOutput)
	}
	return reply, nil
}

// Summary returns the model's summary text as is, trimmed.
func Summary(raw string) string {
	return strings.TrimSpace(raw)
}
