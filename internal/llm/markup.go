package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Inline tool-call markup dialect.
//
// Some models emit tool calls as text instead of using the structured
// field. The dialect has three accepted forms:
//
//   - tagged:      <tool_call>{"name": "...", "arguments": {...}}</tool_call>
//   - bare object: {"name": "...", "arguments": {...}}  (entire content)
//   - bare array:  [{"name": ...}, ...]                 (entire content)
//
// Matched spans are removed from the visible text. A tag whose body is
// not parseable JSON is left in place rather than silently swallowed.

var toolCallTagRe = regexp.MustCompile(`(?s)<tool_call>\s*(.*?)\s*</tool_call>\s*`)

type markupCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// extractMarkupCalls scans content for the markup dialect and returns
// any tool calls found plus the content with matched markup stripped.
// Extracted calls get synthesized IDs since the dialect carries none.
func extractMarkupCalls(content string) ([]ToolCall, string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, content
	}

	if strings.Contains(trimmed, "<tool_call>") {
		return extractTagged(content)
	}

	// Bare JSON forms only count when they are the entire content;
	// prose mentioning JSON must stay visible.
	if calls := decodeMarkup(trimmed); len(calls) > 0 {
		return synthesize(calls), ""
	}

	return nil, content
}

// extractTagged pulls every parseable <tool_call> span out of content.
func extractTagged(content string) ([]ToolCall, string) {
	var calls []markupCall

	cleaned := toolCallTagRe.ReplaceAllStringFunc(content, func(match string) string {
		inner := toolCallTagRe.FindStringSubmatch(match)[1]
		parsed := decodeMarkup(inner)
		if len(parsed) == 0 {
			return match // unparseable body stays visible
		}
		calls = append(calls, parsed...)
		return ""
	})

	if len(calls) == 0 {
		return nil, content
	}
	return synthesize(calls), strings.TrimSpace(cleaned)
}

// decodeMarkup parses a markup body as either a single call object or
// an array of them. Returns nil when s is neither.
func decodeMarkup(s string) []markupCall {
	var list []markupCall
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		var named []markupCall
		for _, c := range list {
			if c.Name != "" {
				named = append(named, c)
			}
		}
		return named
	}

	var single markupCall
	if err := json.Unmarshal([]byte(s), &single); err == nil && single.Name != "" {
		return []markupCall{single}
	}

	return nil
}

func synthesize(calls []markupCall) []ToolCall {
	result := make([]ToolCall, len(calls))
	for i, c := range calls {
		result[i] = ToolCall{
			ID:        "text_" + uuid.NewString(),
			Name:      c.Name,
			Arguments: c.Arguments,
		}
	}
	return result
}
