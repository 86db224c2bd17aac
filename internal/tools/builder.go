package tools

import (
	"fmt"

	"github.com/desktopfriends/petagent/internal/avatar"
)

// Sources declares the capability providers a registry is built
// from. Nil fields are skipped, so a persona only carries the tools
// its collaborators actually back.
type Sources struct {
	Avatar  avatar.Controller
	Tracker *avatar.Tracker

	// Cognition receives the model's decide_reply verdicts.
	Cognition func(Decision)

	Widgets WidgetContext
	Peers   PeerMessenger
	Plugins []PluginTool
}

// Build assembles a registry from every configured source. Name
// collisions across sources are an error, not a silent override.
func Build(src Sources) (*Registry, error) {
	r := NewRegistry()

	if src.Avatar != nil {
		if err := registerAvatarTools(r, src.Avatar, src.Tracker); err != nil {
			return nil, fmt.Errorf("avatar tools: %w", err)
		}
	}
	if src.Cognition != nil {
		if err := registerCognitionTools(r, src.Cognition); err != nil {
			return nil, fmt.Errorf("cognition tools: %w", err)
		}
	}
	if src.Widgets != nil {
		if err := registerWidgetTools(r, src.Widgets); err != nil {
			return nil, fmt.Errorf("widget tools: %w", err)
		}
	}
	if src.Peers != nil {
		if err := registerPeerTools(r, src.Peers); err != nil {
			return nil, fmt.Errorf("peer tools: %w", err)
		}
	}
	if len(src.Plugins) > 0 {
		if err := registerPluginTools(r, src.Plugins); err != nil {
			return nil, fmt.Errorf("plugin tools: %w", err)
		}
	}

	return r, nil
}
