// Package agent implements the persona orchestration core: the bounded
// tool-calling loop, the output post-processor, and the session facade
// that ties provider, memory, tools, and expression state together.
package agent

import (
	"context"
	"log/slog"

	"github.com/desktopfriends/petagent/internal/llm"
	"github.com/desktopfriends/petagent/internal/tools"
)

// DefaultMaxIterations bounds how many tool-calling rounds one turn
// may spend before the loop forces a plain-text answer.
const DefaultMaxIterations = 5

// ToolCallRecord is one executed tool call, in execution order.
type ToolCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result"`
}

// loopResult carries everything one turn produced: the final model
// response, the executed tool calls, and the transcript entries the
// turn appended after the caller's input.
type loopResult struct {
	final    *llm.ChatResponse
	records  []ToolCallRecord
	appended []llm.Message

	// degraded is set when the iteration budget ran out and the final
	// answer came from a tools-disabled fallback call.
	degraded bool
}

// loop runs the tool-calling rounds for a single turn.
type loop struct {
	caller        llm.Caller
	registry      *tools.Registry
	maxIterations int
	logger        *slog.Logger
}

// run drives the conversation until the model answers without tool
// calls or the iteration budget runs out. Tool calls within a round
// execute sequentially, and every call gets a result message keyed by
// its id before the next model call.
//
// When the budget is exhausted, one final call is made with tools
// disabled so the turn still ends in text. That answer is degraded,
// not failed.
func (l *loop) run(ctx context.Context, msgs []llm.Message) (*loopResult, error) {
	res := &loopResult{}
	transcript := msgs
	schemas := l.registry.Schemas()

	for i := 0; i < l.maxIterations; i++ {
		resp, err := l.caller.Chat(ctx, transcript, schemas, true)
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			res.final = resp
			return res, nil
		}

		l.logger.Debug("executing tool calls",
			"iteration", i+1,
			"count", len(resp.ToolCalls),
		)

		assistant := llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		transcript = append(transcript, assistant)
		res.appended = append(res.appended, assistant)

		for _, call := range resp.ToolCalls {
			result := l.registry.Execute(ctx, call)
			l.logger.Debug("tool executed", "tool", call.Name, "result_len", len(result))

			res.records = append(res.records, ToolCallRecord{
				Name:      call.Name,
				Arguments: call.Arguments,
				Result:    result,
			})
			toolMsg := llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			}
			transcript = append(transcript, toolMsg)
			res.appended = append(res.appended, toolMsg)
		}
	}

	l.logger.Warn("iteration budget exhausted, forcing plain answer",
		"max_iterations", l.maxIterations,
	)

	// Schemas still travel on the fallback call: the transcript carries
	// tool turns, and some providers reject those without the matching
	// tool definitions. toolsEnabled=false is what forbids further use.
	resp, err := l.caller.Chat(ctx, transcript, schemas, false)
	if err != nil {
		return nil, err
	}
	res.final = resp
	res.degraded = true
	return res, nil
}
