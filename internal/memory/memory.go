// Package memory provides per-persona conversation memory: a bounded
// in-process window that feeds the model, backed by an optional SQLite
// snapshot so history survives restarts.
package memory

import (
	"fmt"
	"log/slog"

	"github.com/desktopfriends/petagent/internal/llm"
)

// DefaultWindowSize is the number of messages kept when the persona
// config does not say otherwise.
const DefaultWindowSize = 50

// Window is a bounded sliding window of conversation messages. When
// full, appending evicts the oldest entries. Not safe for concurrent
// use; the owning session serializes access.
type Window struct {
	max  int
	msgs []llm.Message
}

// NewWindow creates a window holding at most max messages.
// Non-positive max falls back to DefaultWindowSize.
func NewWindow(max int) *Window {
	if max <= 0 {
		max = DefaultWindowSize
	}
	return &Window{max: max}
}

// Append adds messages, evicting from the front once the window is
// over capacity.
func (w *Window) Append(msgs ...llm.Message) {
	w.msgs = append(w.msgs, msgs...)
	w.trimToCapacity()
}

// trimToCapacity evicts oldest messages until within capacity, then
// keeps dropping while the head is a tool result whose assistant
// tool-call turn was evicted with it. Both provider protocols reject a
// transcript opening with an orphan tool message.
func (w *Window) trimToCapacity() {
	if n := len(w.msgs) - w.max; n > 0 {
		w.msgs = append(w.msgs[:0], w.msgs[n:]...)
	}
	for len(w.msgs) > 0 && w.msgs[0].Role == "tool" {
		w.msgs = w.msgs[1:]
	}
}

// Messages returns a copy of the window contents, oldest first.
func (w *Window) Messages() []llm.Message {
	out := make([]llm.Message, len(w.msgs))
	copy(out, w.msgs)
	return out
}

// Len returns the number of messages currently held.
func (w *Window) Len() int {
	return len(w.msgs)
}

// Clear drops all messages.
func (w *Window) Clear() {
	w.msgs = nil
}

// Resize changes the capacity, evicting oldest messages if the window
// is now over it. Non-positive max falls back to DefaultWindowSize.
func (w *Window) Resize(max int) {
	if max <= 0 {
		max = DefaultWindowSize
	}
	w.max = max
	w.trimToCapacity()
}

// Memory couples a window with an optional persistent store. A nil
// store gives purely in-process memory, which is what tests and the
// ephemeral-persona path use.
type Memory struct {
	personaID string
	window    *Window
	store     *Store
	logger    *slog.Logger
}

// New creates memory for one persona. When a store is supplied, the
// persisted snapshot is loaded into the window immediately.
func New(personaID string, size int, store *Store, logger *slog.Logger) (*Memory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Memory{
		personaID: personaID,
		window:    NewWindow(size),
		store:     store,
		logger:    logger.With("component", "memory", "persona", personaID),
	}

	if store != nil {
		msgs, err := store.Load(personaID)
		if err != nil {
			return nil, fmt.Errorf("load persisted history: %w", err)
		}
		m.window.Append(msgs...)
		if len(msgs) > 0 {
			m.logger.Debug("restored conversation history", "messages", len(msgs))
		}
	}

	return m, nil
}

// Append adds messages to the window and re-persists the snapshot.
// Persistence failures are logged, not returned: losing a snapshot
// must not fail the conversation turn.
func (m *Memory) Append(msgs ...llm.Message) {
	m.window.Append(msgs...)
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.personaID, m.window.Messages()); err != nil {
		m.logger.Error("persist conversation history", "error", err)
	}
}

// Messages returns the current window contents, oldest first.
func (m *Memory) Messages() []llm.Message {
	return m.window.Messages()
}

// Len returns the number of messages in the window.
func (m *Memory) Len() int {
	return m.window.Len()
}

// Resize changes the window capacity.
func (m *Memory) Resize(size int) {
	m.window.Resize(size)
}

// Clear drops the window and the persisted snapshot.
func (m *Memory) Clear() error {
	m.window.Clear()
	if m.store == nil {
		return nil
	}
	if err := m.store.Clear(m.personaID); err != nil {
		return fmt.Errorf("clear persisted history: %w", err)
	}
	return nil
}
