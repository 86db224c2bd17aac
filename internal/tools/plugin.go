package tools

import (
	"context"

	"github.com/desktopfriends/petagent/internal/schema"
)

// PluginTool is a caller-supplied capability. Plugins register by
// value; the registry owns nothing about their lifecycle beyond name
// uniqueness.
type PluginTool struct {
	Name        string
	Description string
	Params      schema.Params
	Invoke      func(ctx context.Context, args map[string]any) (string, error)
}

func registerPluginTools(r *Registry, plugins []PluginTool) error {
	for _, p := range plugins {
		p := p
		t := &Tool{
			Name:        p.Name,
			Description: p.Description,
			Params:      p.Params,
			Handler:     p.Invoke,
		}
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
