// Package tools defines the tool registry and the capability sources
// bound into it: avatar control, cognition, widget context, peer
// messaging, and plugin-supplied actions.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/desktopfriends/petagent/internal/llm"
	"github.com/desktopfriends/petagent/internal/schema"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Params      schema.Params
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the tools bound for one session. It is rebuilt in full
// whenever a capability-affecting config field changes; tools are never
// rebound individually.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names across capability sources are a
// wiring bug, so they fail loudly at build time instead of shadowing.
func (r *Registry) Register(t *Tool) error {
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("duplicate tool name %q", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Get retrieves a tool by name, nil when absent.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the provider-neutral declarations for every tool,
// in sorted name order.
func (r *Registry) Schemas() []llm.ToolSchema {
	var result []llm.ToolSchema
	for _, name := range r.Names() {
		t := r.tools[name]
		result = append(result, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema.Translate(t.Params),
		})
	}
	return result
}

// Execute runs one tool call and always returns a textual result.
// Failures never cross this boundary as errors: an unknown name,
// unparseable arguments, or a failing handler all become "Error: ..."
// strings so the loop can hand them back to the model and continue.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (result string) {
	defer func() {
		if p := recover(); p != nil {
			result = fmt.Sprintf("Error: tool %s panicked: %v", call.Name, p)
		}
	}()

	if call.ArgsError != "" {
		return fmt.Sprintf("Error: invalid tool arguments: %s", call.ArgsError)
	}

	tool := r.tools[call.Name]
	if tool == nil {
		return fmt.Sprintf("Error: Tool not found: %s", call.Name)
	}

	out, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}
