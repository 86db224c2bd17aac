package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	claudeDefaultURL = "https://api.anthropic.com/v1/messages"
	claudeAPIVersion = "2023-06-01"
)

// claudeAdapter speaks the Claude-style messages protocol: system prompt
// as a top-level field, content-block arrays, and per-tool input_schema.
type claudeAdapter struct{}

type claudeRequest struct {
	Model      string          `json:"model"`
	Messages   []claudeMessage `json:"messages"`
	System     string          `json:"system,omitempty"`
	MaxTokens  int             `json:"max_tokens"`
	Tools      []claudeTool    `json:"tools,omitempty"`
	ToolChoice any             `json:"tool_choice,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []claudeContent
}

type claudeContent struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"` // for tool_result
}

type claudeTool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

type claudeResponse struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
	Model   string          `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *claudeAdapter) Validate(cfg Config) error {
	if cfg.APIKey == "" {
		return &ConfigError{Provider: cfg.Provider, Reason: "api_key is required"}
	}
	if cfg.Model == "" {
		return &ConfigError{Provider: cfg.Provider, Reason: "model is required"}
	}
	return nil
}

func (a *claudeAdapter) BuildRequest(cfg Config, messages []Message, tools []ToolSchema, toolsEnabled bool) (*Request, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	claudeMsgs, systemPrompt := convertToClaude(messages)

	req := claudeRequest{
		Model:     cfg.Model,
		Messages:  claudeMsgs,
		System:    systemPrompt,
		MaxTokens: maxTokens,
	}

	// The messages API requires the tools parameter whenever the
	// transcript carries tool_use or tool_result blocks, even on a
	// call that must not use tools. tool_choice "none" forbids use
	// while keeping the request valid.
	if toolsEnabled || hasToolTurns(messages) {
		for _, t := range tools {
			req.Tools = append(req.Tools, claudeTool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.Parameters,
			})
		}
		if !toolsEnabled && len(req.Tools) > 0 {
			req.ToolChoice = map[string]string{"type": "none"}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := cfg.BaseURL
	if url == "" {
		url = claudeDefaultURL
	}

	return &Request{
		URL: url,
		Headers: map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": claudeAPIVersion,
		},
		Body: body,
	}, nil
}

func (a *claudeAdapter) ParseResponse(body []byte) (*ChatResponse, error) {
	var resp claudeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Provider: "claude", Reason: fmt.Sprintf("decode: %v", err)}
	}
	if resp.Type != "message" || resp.Content == nil {
		return nil, &ParseError{Provider: "claude", Reason: fmt.Sprintf("unexpected envelope type %q", resp.Type)}
	}

	var text string
	var toolCalls []ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			args, ok := block.Input.(map[string]any)
			if !ok {
				args = map[string]any{}
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	// Markup-derived calls append after the structured ones.
	markupCalls, content := extractMarkupCalls(text)
	toolCalls = append(toolCalls, markupCalls...)

	return &ChatResponse{
		Model:        resp.Model,
		Content:      content,
		ToolCalls:    toolCalls,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// hasToolTurns reports whether any message carries tool calls or a
// tool result.
func hasToolTurns(messages []Message) bool {
	for _, m := range messages {
		if m.Role == "tool" || len(m.ToolCalls) > 0 {
			return true
		}
	}
	return false
}

// convertToClaude converts neutral messages to the messages-API format.
// System messages are extracted into the separate system prompt; tool
// results travel back as user-role tool_result blocks.
func convertToClaude(messages []Message) ([]claudeMessage, string) {
	var systemParts []string
	var result []claudeMessage

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)

		case "assistant":
			if len(msg.ToolCalls) > 0 {
				var blocks []claudeContent
				if msg.Content != "" {
					blocks = append(blocks, claudeContent{Type: "text", Text: msg.Content})
				}
				for i, tc := range msg.ToolCalls {
					args := tc.Arguments
					if args == nil {
						args = map[string]any{}
					}
					id := tc.ID
					if id == "" {
						id = fmt.Sprintf("toolu_%s_%d", tc.Name, i)
					}
					blocks = append(blocks, claudeContent{
						Type:  "tool_use",
						ID:    id,
						Name:  tc.Name,
						Input: args,
					})
				}
				result = append(result, claudeMessage{Role: "assistant", Content: blocks})
			} else {
				result = append(result, claudeMessage{Role: "assistant", Content: msg.Content})
			}

		case "tool":
			result = append(result, claudeMessage{
				Role: "user",
				Content: []claudeContent{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})

		case "user":
			result = append(result, claudeMessage{Role: "user", Content: msg.Content})
		}
	}

	return result, strings.Join(systemParts, "\n\n")
}
