package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// openaiAdapter speaks the OpenAI-compatible chat-completions protocol.
// It covers the official API and the many local servers that clone it,
// which is why the endpoint is always user-supplied.
type openaiAdapter struct{}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON-encoded object
	} `json:"function"`
}

type openaiRequest struct {
	Model      string           `json:"model"`
	Messages   []openaiMessage  `json:"messages"`
	MaxTokens  int              `json:"max_tokens"`
	Tools      []map[string]any `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (a *openaiAdapter) Validate(cfg Config) error {
	if cfg.BaseURL == "" {
		return &ConfigError{Provider: cfg.Provider, Reason: "base_url is required for openai-compatible endpoints"}
	}
	if cfg.Model == "" {
		return &ConfigError{Provider: cfg.Provider, Reason: "model is required"}
	}
	return nil
}

func (a *openaiAdapter) BuildRequest(cfg Config, messages []Message, tools []ToolSchema, toolsEnabled bool) (*Request, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	req := openaiRequest{
		Model:     cfg.Model,
		Messages:  convertToOpenAI(messages),
		MaxTokens: maxTokens,
	}

	if toolsEnabled && len(tools) > 0 {
		for _, t := range tools {
			req.Tools = append(req.Tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	return &Request{
		URL:     strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		Headers: headers,
		Body:    body,
	}, nil
}

func (a *openaiAdapter) ParseResponse(body []byte) (*ChatResponse, error) {
	var resp openaiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Provider: "openai", Reason: fmt.Sprintf("decode: %v", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &ParseError{Provider: "openai", Reason: "no choices in response"}
	}

	msg := resp.Choices[0].Message

	var toolCalls []ToolCall
	for _, tc := range msg.ToolCalls {
		call := ToolCall{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &call.Arguments); err != nil {
				// Malformed arguments skip this call only; the
				// registry synthesizes the error result.
				call.ArgsError = err.Error()
			}
		}
		toolCalls = append(toolCalls, call)
	}

	// Some models emit tool calls as markup inside the text instead of
	// (or alongside) the structured field. Structured calls come first;
	// markup-derived calls are appended, and their markup is stripped
	// from the visible content.
	markupCalls, content := extractMarkupCalls(msg.Content)
	toolCalls = append(toolCalls, markupCalls...)

	return &ChatResponse{
		Model:        resp.Model,
		Content:      content,
		ToolCalls:    toolCalls,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// convertToOpenAI maps neutral messages onto the chat-completions shape.
// Assistant tool-call arguments are re-encoded as JSON strings, which is
// how this protocol family carries them.
func convertToOpenAI(messages []Message) []openaiMessage {
	result := make([]openaiMessage, 0, len(messages))
	for _, msg := range messages {
		m := openaiMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			args := tc.RawArguments
			if args == "" {
				encoded, err := json.Marshal(tc.Arguments)
				if err != nil || tc.Arguments == nil {
					encoded = []byte("{}")
				}
				args = string(encoded)
			}
			otc := openaiToolCall{ID: tc.ID, Type: "function"}
			otc.Function.Name = tc.Name
			otc.Function.Arguments = args
			m.ToolCalls = append(m.ToolCalls, otc)
		}
		result = append(result, m)
	}
	return result
}
