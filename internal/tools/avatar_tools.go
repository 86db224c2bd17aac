package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/desktopfriends/petagent/internal/avatar"
	"github.com/desktopfriends/petagent/internal/schema"
)

// registerAvatarTools binds motion and expression control. The tracker
// is the only place expression state lives; these handlers are its only
// writers.
func registerAvatarTools(r *Registry, ctrl avatar.Controller, tracker *avatar.Tracker) error {
	tools := []*Tool{
		{
			Name:        "play_motion",
			Description: "Play a one-shot motion animation, e.g. a wave or a jump. Use to react physically to the conversation.",
			Params: schema.Params{
				"id": {Kind: schema.String, Description: "The motion id, e.g. wave, jump, nod"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				id, _ := args["id"].(string)
				if id == "" {
					return "", fmt.Errorf("id is required")
				}
				if err := ctrl.PlayMotion(id); err != nil {
					return "", err
				}
				return fmt.Sprintf("Played motion %q", id), nil
			},
		},
		{
			Name:        "set_expression",
			Description: "Set a persistent facial expression. It stays until you reset it, so remember to reset when the mood passes.",
			Params: schema.Params{
				"name": {Kind: schema.String, Description: "The expression name, e.g. happy, sad, surprised"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				name, _ := args["name"].(string)
				if name == "" {
					return "", fmt.Errorf("name is required")
				}
				if err := ctrl.SetExpression(name); err != nil {
					return "", err
				}
				tracker.Set(name, time.Now())
				ctrl.OnStateChange(tracker.State())
				return fmt.Sprintf("Expression set to %q", name), nil
			},
		},
		{
			Name:        "reset_expression",
			Description: "Return the face to neutral.",
			Params:      nil,
			Handler: func(_ context.Context, _ map[string]any) (string, error) {
				if err := ctrl.ResetExpression(); err != nil {
					return "", err
				}
				tracker.Reset()
				ctrl.OnStateChange(tracker.State())
				return "Expression reset to neutral", nil
			},
		},
	}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
