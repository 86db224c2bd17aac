package agent

import (
	"regexp"
	"strings"
)

// NoReplyMarker is the in-band token the model emits to stay silent.
// It overrides whatever the cognition tool decided this turn.
const NoReplyMarker = "[NO_REPLY]"

var thinkRe = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// processed is the post-processor's view of a final model answer.
type processed struct {
	Content  string
	Thinking string
	NoReply  bool
}

// postprocess separates a raw model answer into visible text, hidden
// reasoning, and the silence signal. Thinking spans are concatenated
// in document order; the marker and the spans never reach the user.
func postprocess(raw string) processed {
	var p processed

	var thoughts []string
	content := thinkRe.ReplaceAllStringFunc(raw, func(span string) string {
		inner := thinkRe.FindStringSubmatch(span)[1]
		if t := strings.TrimSpace(inner); t != "" {
			thoughts = append(thoughts, t)
		}
		return ""
	})
	p.Thinking = strings.Join(thoughts, "\n")

	if strings.Contains(content, NoReplyMarker) {
		p.NoReply = true
		content = strings.ReplaceAll(content, NoReplyMarker, "")
	}

	p.Content = strings.TrimSpace(content)
	return p
}
