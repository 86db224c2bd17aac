package llm

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ConfigError reports an invalid provider configuration: an unknown
// adapter id or a missing required field. It is returned at session
// construction or config update, never mid-call.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q: %s", e.Provider, e.Reason)
}

// RequestError reports a non-2xx HTTP response from a provider. Body
// carries the best-effort-parsed error text, not the raw payload.
type RequestError struct {
	Provider string
	Status   int
	Body     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, e.Body)
}

// ParseError reports a response envelope the adapter did not recognize.
type ParseError struct {
	Provider string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response: %s", e.Provider, e.Reason)
}

// errorBodyText extracts a human-readable message from a provider error
// body. Both OpenAI-style and Claude-style bodies nest the message under
// "error.message"; anything else is returned as-is.
func errorBodyText(body string) string {
	if msg := gjson.Get(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	return body
}
