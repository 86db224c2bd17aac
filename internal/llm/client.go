package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/desktopfriends/petagent/internal/httpkit"
)

// Adapter is the per-vendor strategy: it shapes outbound requests and
// interprets the vendor's response envelope. Adapters are stateless;
// everything they need arrives in the Config.
type Adapter interface {
	// Validate checks cfg for fields this vendor requires. Called once
	// at client construction so misconfiguration fails before any turn.
	Validate(cfg Config) error

	// BuildRequest formats messages and tool schemas into the vendor's
	// wire shape. When toolsEnabled is false no tool fields are sent.
	BuildRequest(cfg Config, messages []Message, tools []ToolSchema, toolsEnabled bool) (*Request, error)

	// ParseResponse extracts text and tool calls from a 2xx body.
	ParseResponse(body []byte) (*ChatResponse, error)
}

// adapters is the vendor strategy table. Adding a provider is additive:
// implement Adapter and register it by id.
var adapters = map[string]Adapter{
	"openai": &openaiAdapter{},
	"claude": &claudeAdapter{},
}

// RegisterAdapter adds a vendor strategy under the given id, replacing
// any existing registration. Intended for tests and plugin vendors.
func RegisterAdapter(id string, a Adapter) {
	adapters[id] = a
}

// Caller is the narrow interface the agent loop depends on. Only the
// real Client talks HTTP; tests substitute scripted implementations.
type Caller interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSchema, toolsEnabled bool) (*ChatResponse, error)
}

// Client executes provider calls for one configured vendor binding.
type Client struct {
	cfg        Config
	adapter    Adapter
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client for cfg. An unknown provider id or a missing
// required field is a *ConfigError here, not at call time.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	adapter, ok := adapters[cfg.Provider]
	if !ok {
		return nil, &ConfigError{Provider: cfg.Provider, Reason: "unknown provider id"}
	}
	if err := adapter.Validate(cfg); err != nil {
		return nil, err
	}

	// Providers can think for a long time before sending headers.
	// Use a generous response header timeout and no global timeout;
	// ctx deadlines control cancellation.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	return &Client{
		cfg:     cfg,
		adapter: adapter,
		logger:  logger.With("provider", cfg.Provider),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithTransport(t),
		),
	}, nil
}

// Chat performs one provider round trip. Non-2xx responses surface as
// *RequestError, unrecognized envelopes as *ParseError.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolSchema, toolsEnabled bool) (*ChatResponse, error) {
	req, err := c.adapter.BuildRequest(c.cfg, messages, tools, toolsEnabled)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.logger.Debug("provider call",
		"model", c.cfg.Model,
		"messages", len(messages),
		"tools", len(tools),
		"tools_enabled", toolsEnabled,
	)
	c.logger.Log(ctx, LevelTrace, "request payload", "json", string(req.Body))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Error("API error", "status", resp.StatusCode, "body", errBody)
		return nil, &RequestError{
			Provider: c.cfg.Provider,
			Status:   resp.StatusCode,
			Body:     errorBodyText(errBody),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Log(ctx, LevelTrace, "response payload", "json", string(body))

	result, err := c.adapter.ParseResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("response received",
		"model", result.Model,
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"tool_calls", len(result.ToolCalls),
	)
	return result, nil
}
