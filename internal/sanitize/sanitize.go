// Package sanitize renders model output, which is Markdown, as plain text for
// front-ends that cannot display Markdown.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	blockTags  = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?ul>|</?ol>`)
	listItem   = regexp.MustCompile(`<li>`)
	blankLines = regexp.MustCompile(`\n\s*\n+`)
)

// Policy strips Markdown and HTML from text.
type Policy struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewTelegramPolicy creates a Policy producing Telegram-safe plain text.
func NewTelegramPolicy() *Policy {
	return &Policy{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// SanitizeText strips Markdown and HTML from text, keeping line structure and
// list bullets. Input that fails to render is returned unchanged.
func (p *Policy) SanitizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}

	htmlText := blockTags.ReplaceAllString(buf.String(), "\n")
	htmlText = listItem.ReplaceAllString(htmlText, "• ")

	sanitized := p.policy.Sanitize(htmlText)
	sanitized = blankLines.ReplaceAllString(sanitized, "\n\n")

	return strings.TrimSpace(html.UnescapeString(sanitized))
}
