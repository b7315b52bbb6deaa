// Package richtext converts stored message bodies to plain text.
//
// Bodies are produced by the chat editor as a Quill delta document:
//
//	{"ops":[{"insert":"Hello "},{"insert":"world","attributes":{"bold":true}},{"insert":"\n"}]}
//
// Only string inserts carry text; embeds (images, mentions) are dropped.
package richtext

import (
	"encoding/json"
	"strings"
)

type delta struct {
	Ops []struct {
		Insert json.RawMessage `json:"insert"`
	} `json:"ops"`
}

// PlainText returns the textual runs of a delta document, trimmed.
// Anything that is not a delta document is returned unmodified, so a bad body
// never blocks the pipeline.
func PlainText(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return body
	}

	var d delta
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil || d.Ops == nil {
		return body
	}

	var sb strings.Builder
	for _, op := range d.Ops {
		var s string
		if err := json.Unmarshal(op.Insert, &s); err != nil {
			continue
		}
		sb.WriteString(s)
	}
	return strings.TrimSpace(sb.String())
}
