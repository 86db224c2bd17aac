package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/desktopfriends/petagent/internal/avatar"
	"github.com/desktopfriends/petagent/internal/config"
	"github.com/desktopfriends/petagent/internal/llm"
	"github.com/desktopfriends/petagent/internal/memory"
	"github.com/desktopfriends/petagent/internal/tools"
)

// Collaborators are the external systems a session binds tools to.
// Nil fields simply leave the corresponding tools out of the registry.
type Collaborators struct {
	Avatar  avatar.Controller
	Widgets tools.WidgetContext
	Peers   tools.PeerMessenger
	Plugins []tools.PluginTool

	// Store persists conversation history; nil keeps it in-process only.
	Store *memory.Store

	// Caller overrides the provider client. Nil builds one from the
	// persona's provider config; tests inject a scripted caller here.
	Caller llm.Caller

	Logger *slog.Logger
}

// Reply is the structured outcome of one conversation turn.
type Reply struct {
	// Content is the visible answer, nil when the persona stays silent.
	Content *string `json:"content"`

	// Thinking is the model's hidden reasoning, empty when none.
	Thinking string `json:"thinking,omitempty"`

	// ToolCalls lists every executed call in execution order.
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`

	// ShouldReply is false when the persona decided to stay silent,
	// either via the cognition tool or the in-band marker.
	ShouldReply bool `json:"should_reply"`
}

// Session drives one persona: it owns the provider client, the tool
// registry, conversation memory, and expression state. Turns are
// serialized; concurrent SendMessage calls queue on the mutex.
type Session struct {
	mu       sync.Mutex
	cfg      config.PersonaConfig
	collab   Collaborators
	caller   llm.Caller
	registry *tools.Registry
	tracker  *avatar.Tracker
	mem      *memory.Memory
	logger   *slog.Logger

	// decision holds what decide_reply reported during the current
	// turn, nil when the model never called it.
	decision *tools.Decision

	now func() time.Time
}

// NewSession builds a session for one persona. Provider config is
// validated here, so a bad vendor id or missing credential fails at
// startup rather than on the first message.
func NewSession(cfg config.PersonaConfig, collab Collaborators) (*Session, error) {
	logger := collab.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "agent", "persona", cfg.ID)

	s := &Session{
		cfg:     cfg,
		collab:  collab,
		tracker: avatar.NewTracker(),
		logger:  logger,
		now:     time.Now,
	}

	caller, err := s.buildCaller(cfg.Provider)
	if err != nil {
		return nil, err
	}
	s.caller = caller

	registry, err := s.buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	s.registry = registry

	mem, err := memory.New(cfg.ID, cfg.MemorySize, collab.Store, logger)
	if err != nil {
		return nil, err
	}
	s.mem = mem

	return s, nil
}

func (s *Session) buildCaller(provider config.ProviderConfig) (llm.Caller, error) {
	if s.collab.Caller != nil {
		return s.collab.Caller, nil
	}
	return llm.New(llm.Config{
		Provider:  provider.ID,
		Model:     provider.Model,
		APIKey:    provider.APIKey,
		BaseURL:   provider.BaseURL,
		MaxTokens: provider.MaxTokens,
	}, s.logger)
}

// buildRegistry assembles the full tool set from scratch. It is called
// at construction and again whenever a capability-affecting config
// field changes; tools are never rebound individually.
func (s *Session) buildRegistry(cfg config.PersonaConfig) (*tools.Registry, error) {
	src := tools.Sources{}

	if s.collab.Avatar != nil && !cfg.CapabilityDisabled("avatar") {
		src.Avatar = s.collab.Avatar
		src.Tracker = s.tracker
	}
	if !cfg.CapabilityDisabled("cognition") {
		src.Cognition = s.recordDecision
	}
	if s.collab.Widgets != nil && !cfg.CapabilityDisabled("widgets") {
		src.Widgets = s.collab.Widgets
	}
	if s.collab.Peers != nil && !cfg.CapabilityDisabled("peers") {
		src.Peers = s.collab.Peers
	}
	if len(s.collab.Plugins) > 0 && !cfg.CapabilityDisabled("plugins") {
		src.Plugins = s.collab.Plugins
	}

	return tools.Build(src)
}

func (s *Session) recordDecision(d tools.Decision) {
	s.decision = &d
}

func (s *Session) maxIterations() int {
	if s.cfg.MaxIterations > 0 {
		return s.cfg.MaxIterations
	}
	return DefaultMaxIterations
}

// SendMessage runs one conversation turn: prompt assembly, the
// tool-calling loop, post-processing, and memory persistence.
func (s *Session) SendMessage(ctx context.Context, text string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decision = nil

	system := llm.Message{
		Role:    "system",
		Content: buildSystemPrompt(s.cfg, s.tracker.State(), s.now()),
	}
	user := llm.Message{Role: "user", Content: text}

	msgs := make([]llm.Message, 0, s.mem.Len()+2)
	msgs = append(msgs, system)
	msgs = append(msgs, s.mem.Messages()...)
	msgs = append(msgs, user)

	l := &loop{
		caller:        s.caller,
		registry:      s.registry,
		maxIterations: s.maxIterations(),
		logger:        s.logger,
	}
	res, err := l.run(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if res.degraded {
		s.logger.Info("turn finished on tools-disabled fallback")
	}

	p := postprocess(res.final.Content)

	shouldReply := true
	if s.decision != nil {
		shouldReply = s.decision.ShouldReply
	}
	if p.NoReply {
		shouldReply = false
	}

	var content *string
	if shouldReply && p.Content != "" {
		content = &p.Content
	}

	turn := append([]llm.Message{user}, res.appended...)
	if p.Content != "" {
		turn = append(turn, llm.Message{Role: "assistant", Content: p.Content})
	}
	s.mem.Append(turn...)

	return &Reply{
		Content:     content,
		Thinking:    p.Thinking,
		ToolCalls:   res.records,
		ShouldReply: shouldReply,
	}, nil
}

// UpdateConfig hot-swaps the persona configuration. The persona id is
// immutable. Provider changes rebuild the client; capability changes
// rebuild the tool registry in full. Prompt, iteration, and memory
// settings apply from the next turn.
func (s *Session) UpdateConfig(cfg config.PersonaConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ID != s.cfg.ID {
		return fmt.Errorf("persona id is immutable: have %q, got %q", s.cfg.ID, cfg.ID)
	}

	if cfg.Provider != s.cfg.Provider {
		caller, err := s.buildCaller(cfg.Provider)
		if err != nil {
			return err
		}
		s.caller = caller
		s.logger.Info("provider reconfigured",
			"provider", cfg.Provider.ID,
			"model", cfg.Provider.Model,
		)
	}

	if !equalStringSets(cfg.DisabledCapabilities, s.cfg.DisabledCapabilities) {
		registry, err := s.buildRegistry(cfg)
		if err != nil {
			return fmt.Errorf("rebuild tool registry: %w", err)
		}
		s.registry = registry
		s.logger.Info("tool registry rebuilt", "tools", len(registry.Names()))
	}

	if cfg.MemorySize != s.cfg.MemorySize {
		s.mem.Resize(cfg.MemorySize)
	}

	s.cfg = cfg
	return nil
}

// ClearHistory drops the conversation window and its persisted
// snapshot. Expression state is unaffected.
func (s *Session) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Clear()
}

// Tools returns the names of the currently bound tools, sorted.
func (s *Session) Tools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Names()
}

// ExpressionState returns a snapshot of the avatar expression state.
func (s *Session) ExpressionState() avatar.State {
	return s.tracker.State()
}

// Config returns a copy of the current persona configuration.
func (s *Session) Config() config.PersonaConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
