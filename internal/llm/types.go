// Package llm normalizes the incompatible wire protocols of remote LLM
// providers behind a single request/response shape. Each provider is an
// Adapter strategy registered by id; the Client owns the HTTP plumbing
// and error taxonomy shared by all of them.
package llm

import "github.com/desktopfriends/petagent/internal/config"

// LevelTrace is below Debug, used for wire-level payload logging.
// Aliased from config so the trace level has one definition.
const LevelTrace = config.LevelTrace

// Message represents a chat message in provider-neutral form.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall is one structured tool invocation extracted from a provider
// response. IDs are unique within a round and echoed back 1:1 on the
// corresponding tool-result message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// RawArguments preserves the provider's argument text when it
	// arrived as a JSON string (OpenAI style). ArgsError is set when
	// that text could not be parsed; the call is then skipped with a
	// synthesized error result instead of aborting the round.
	RawArguments string `json:"-"`
	ArgsError    string `json:"-"`
}

// ChatResponse is the unified response from any provider.
type ChatResponse struct {
	Model     string
	Content   string
	ToolCalls []ToolCall

	// Token usage (provider-neutral, zero when not reported)
	InputTokens  int
	OutputTokens int
}

// ToolSchema is the provider-neutral declaration of one callable tool.
// Parameters is the JSON-schema object produced by schema.Translate.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a fully formed outbound HTTP request for one provider call.
type Request struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Config identifies and parameterizes one provider binding.
type Config struct {
	Provider  string // adapter id: "openai", "claude"
	Model     string
	APIKey    string
	BaseURL   string // required by adapters without a fixed endpoint
	MaxTokens int    // 0 = DefaultMaxTokens
}

// DefaultMaxTokens is used when Config.MaxTokens is zero.
const DefaultMaxTokens = 4096
