package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/desktopfriends/petagent/internal/avatar"
	"github.com/desktopfriends/petagent/internal/config"
)

// expressionReminderAfter is how long an expression may be held before
// the prompt starts nudging the model to reconsider it.
const expressionReminderAfter = 30 * time.Second

// buildSystemPrompt assembles the per-turn system message: the persona
// prompt, the standing output conventions, and situational context
// like a long-held expression.
func buildSystemPrompt(cfg config.PersonaConfig, state avatar.State, now time.Time) string {
	var b strings.Builder

	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = fmt.Sprintf("You are %s, a desktop companion.", cfg.Name)
	}
	b.WriteString(prompt)

	b.WriteString("\n\n")
	b.WriteString("Output conventions:\n")
	b.WriteString("- To stay silent this turn, respond with exactly " + NoReplyMarker + ".\n")
	b.WriteString("- Private reasoning goes inside <think>...</think>; it is never shown to the user.\n")

	if held := state.Held(now); held >= expressionReminderAfter {
		fmt.Fprintf(&b, "\nYou have been holding the %q expression for %s. Reset it if the moment has passed.\n",
			state.Expression, held.Round(time.Second))
	}

	return b.String()
}
