package tools

import (
	"context"

	"github.com/desktopfriends/petagent/internal/schema"
)

// Decision is the cognition tool's side-channel report on whether the
// persona should speak this turn. It is the primary shouldReply signal;
// only the in-band no-reply marker overrides it.
type Decision struct {
	ShouldReply bool
	Reason      string
}

// registerCognitionTools binds the reply-decision tool. report receives
// the decision during tool execution; the loop reads it after the turn.
func registerCognitionTools(r *Registry, report func(Decision)) error {
	return r.Register(&Tool{
		Name:        "decide_reply",
		Description: "Decide whether this message deserves a spoken reply. Call this when staying silent might be the right move, e.g. the user is talking to someone else.",
		Params: schema.Params{
			"should_reply": {Kind: schema.Boolean, Description: "Whether to speak"},
			"reason":       schema.Optional(schema.Param{Kind: schema.String, Description: "Why"}),
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			should, _ := args["should_reply"].(bool)
			reason, _ := args["reason"].(string)
			report(Decision{ShouldReply: should, Reason: reason})
			if should {
				return "Decision recorded: reply", nil
			}
			return "Decision recorded: stay silent", nil
		},
	})
}
