package llm

import (
	"encoding/json"
	"testing"
)

func claudeTestConfig() Config {
	return Config{
		Provider: "claude",
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "sk-ant-test",
	}
}

func TestClaudeValidate_RequiresAPIKey(t *testing.T) {
	a := &claudeAdapter{}
	cfg := claudeTestConfig()
	cfg.APIKey = ""

	if err := a.Validate(cfg); err == nil {
		t.Fatal("expected error for missing api_key")
	}
}

func TestClaudeBuildRequest_SystemExtraction(t *testing.T) {
	a := &claudeAdapter{}
	msgs := []Message{
		{Role: "system", Content: "You are a pet."},
		{Role: "system", Content: "Current expression: happy."},
		{Role: "user", Content: "hello"},
	}

	req, err := a.BuildRequest(claudeTestConfig(), msgs, nil, true)
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if req.URL != claudeDefaultURL {
		t.Errorf("URL = %q", req.URL)
	}
	if req.Headers["x-api-key"] != "sk-ant-test" {
		t.Errorf("x-api-key = %q", req.Headers["x-api-key"])
	}
	if req.Headers["anthropic-version"] != claudeAPIVersion {
		t.Errorf("anthropic-version = %q", req.Headers["anthropic-version"])
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	system := body["system"].(string)
	if system != "You are a pet.\n\nCurrent expression: happy." {
		t.Errorf("system = %q", system)
	}
	// System messages must not appear in the turn list.
	if got := len(body["messages"].([]any)); got != 1 {
		t.Errorf("messages = %d, want 1", got)
	}
}

func TestClaudeBuildRequest_ToolsUseInputSchema(t *testing.T) {
	a := &claudeAdapter{}
	tools := []ToolSchema{
		{Name: "wave", Description: "wave a paw", Parameters: map[string]any{"type": "object"}},
	}

	req, err := a.BuildRequest(claudeTestConfig(), []Message{{Role: "user", Content: "hi"}}, tools, true)
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(body.Tools))
	}
	if body.Tools[0]["input_schema"] == nil {
		t.Error("tool must carry input_schema")
	}
	if body.Tools[0]["parameters"] != nil {
		t.Error("claude tools must not carry a parameters key")
	}
}

func TestClaudeBuildRequest_ToolResultsAsUserBlocks(t *testing.T) {
	a := &claudeAdapter{}
	msgs := []Message{
		{Role: "user", Content: "wave please"},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "toolu_1", Name: "wave", Arguments: map[string]any{}}}},
		{Role: "tool", Content: "ok", ToolCallID: "toolu_1"},
	}

	req, err := a.BuildRequest(claudeTestConfig(), msgs, nil, true)
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	var body struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(body.Messages))
	}
	last := body.Messages[2]
	if last.Role != "user" {
		t.Errorf("tool result role = %q, want user", last.Role)
	}
	var blocks []map[string]any
	if err := json.Unmarshal(last.Content, &blocks); err != nil {
		t.Fatalf("tool result content should be blocks: %v", err)
	}
	if blocks[0]["type"] != "tool_result" || blocks[0]["tool_use_id"] != "toolu_1" {
		t.Errorf("tool_result block = %v", blocks[0])
	}
}

func TestClaudeBuildRequest_ToolsDisabledWithToolTurns(t *testing.T) {
	// A transcript carrying tool_use/tool_result blocks must still
	// define the tools parameter even when further use is forbidden;
	// tool_choice none is what disables them.
	a := &claudeAdapter{}
	tools := []ToolSchema{
		{Name: "wave", Description: "wave a paw", Parameters: map[string]any{"type": "object"}},
	}
	msgs := []Message{
		{Role: "user", Content: "wave please"},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "toolu_1", Name: "wave", Arguments: map[string]any{}}}},
		{Role: "tool", Content: "ok", ToolCallID: "toolu_1"},
	}

	req, err := a.BuildRequest(claudeTestConfig(), msgs, tools, false)
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	var body struct {
		Tools      []map[string]any `json:"tools"`
		ToolChoice map[string]any   `json:"tool_choice"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Tools) != 1 {
		t.Fatalf("tools = %d, want 1 despite toolsEnabled=false", len(body.Tools))
	}
	if body.ToolChoice == nil || body.ToolChoice["type"] != "none" {
		t.Errorf("tool_choice = %v, want {\"type\": \"none\"}", body.ToolChoice)
	}
}

func TestClaudeBuildRequest_ToolsDisabledPlainTranscript(t *testing.T) {
	a := &claudeAdapter{}
	tools := []ToolSchema{
		{Name: "wave", Description: "wave a paw", Parameters: map[string]any{"type": "object"}},
	}
	msgs := []Message{{Role: "user", Content: "hi"}}

	req, err := a.BuildRequest(claudeTestConfig(), msgs, tools, false)
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["tools"]; ok {
		t.Error("tools sent on a transcript with no tool turns")
	}
	if _, ok := body["tool_choice"]; ok {
		t.Error("tool_choice sent on a transcript with no tool turns")
	}
}

func TestClaudeParseResponse_Blocks(t *testing.T) {
	a := &claudeAdapter{}
	body := `{
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [
			{"type": "text", "text": "Sure!"},
			{"type": "tool_use", "id": "toolu_1", "name": "set_expression", "input": {"name": "happy"}}
		],
		"usage": {"input_tokens": 20, "output_tokens": 8}
	}`

	resp, err := a.ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse error: %v", err)
	}
	if resp.Content != "Sure!" {
		t.Errorf("content = %q", resp.Content)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "toolu_1" || call.Name != "set_expression" || call.Arguments["name"] != "happy" {
		t.Errorf("call = %+v", call)
	}
	if resp.InputTokens != 20 || resp.OutputTokens != 8 {
		t.Errorf("usage = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestClaudeParseResponse_MarkupInText(t *testing.T) {
	a := &claudeAdapter{}
	body := `{
		"type": "message",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "<tool_call>{\"name\": \"get_todos\", \"arguments\": {}}</tool_call>"}
		],
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`

	resp, err := a.ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse error: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "get_todos" {
		t.Errorf("tool calls = %+v", resp.ToolCalls)
	}
	if resp.Content != "" {
		t.Errorf("content = %q, want empty", resp.Content)
	}
}

func TestClaudeParseResponse_UnexpectedEnvelope(t *testing.T) {
	a := &claudeAdapter{}
	_, err := a.ParseResponse([]byte(`{"type": "error", "error": {"message": "overloaded"}}`))
	if err == nil {
		t.Fatal("expected ParseError for non-message envelope")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("error type = %T, want *ParseError", err)
	}
}
