package memory

import (
	"path/filepath"
	"testing"

	"github.com/desktopfriends/petagent/internal/llm"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	w.Append(
		llm.Message{Role: "user", Content: "one"},
		llm.Message{Role: "assistant", Content: "two"},
		llm.Message{Role: "user", Content: "three"},
		llm.Message{Role: "assistant", Content: "four"},
	)

	got := w.Messages()
	if len(got) != 3 {
		t.Fatalf("Len() = %d, want 3", len(got))
	}
	if got[0].Content != "two" || got[2].Content != "four" {
		t.Errorf("window = %v, want oldest evicted", got)
	}
}

func TestWindowEvictionDropsOrphanToolResults(t *testing.T) {
	// Eviction can land mid-turn, removing the assistant tool-call
	// message while its tool results remain. Those orphans must go
	// too: providers reject a transcript opening with a tool message.
	w := NewWindow(3)
	w.Append(
		llm.Message{Role: "user", Content: "wave please"},
		llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "play_motion"}}},
		llm.Message{Role: "tool", Content: "ok", ToolCallID: "call_1"},
		llm.Message{Role: "tool", Content: "ok again", ToolCallID: "call_2"},
		llm.Message{Role: "assistant", Content: "done"},
	)

	got := w.Messages()
	if len(got) == 0 {
		t.Fatal("window is empty")
	}
	if got[0].Role == "tool" {
		t.Errorf("window head = %+v, want orphan tool results evicted", got[0])
	}
	if got[len(got)-1].Content != "done" {
		t.Errorf("newest message = %+v, want it kept", got[len(got)-1])
	}
}

func TestWindowResizeDropsOrphanToolResults(t *testing.T) {
	w := NewWindow(10)
	w.Append(
		llm.Message{Role: "user", Content: "wave please"},
		llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "play_motion"}}},
		llm.Message{Role: "tool", Content: "ok", ToolCallID: "call_1"},
		llm.Message{Role: "assistant", Content: "done"},
	)

	w.Resize(2)
	got := w.Messages()
	if len(got) != 1 || got[0].Content != "done" {
		t.Errorf("window after resize = %+v, want only the plain assistant turn", got)
	}
}

func TestWindowDefaultSize(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < DefaultWindowSize+10; i++ {
		w.Append(llm.Message{Role: "user", Content: "x"})
	}
	if w.Len() != DefaultWindowSize {
		t.Errorf("Len() = %d, want %d", w.Len(), DefaultWindowSize)
	}
}

func TestWindowMessagesIsCopy(t *testing.T) {
	w := NewWindow(5)
	w.Append(llm.Message{Role: "user", Content: "hello"})

	got := w.Messages()
	got[0].Content = "mutated"
	if w.Messages()[0].Content != "hello" {
		t.Error("Messages() exposed internal storage")
	}
}

func TestMemoryWithoutStore(t *testing.T) {
	m, err := New("mochi", 10, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Append(llm.Message{Role: "user", Content: "hi"})
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", m.Len())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	msgs := []llm.Message{
		{Role: "user", Content: "what time is it"},
		{Role: "assistant", Content: "it is noon"},
	}
	if err := store.Save("mochi", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("mochi")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d messages, want 2", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "what time is it" {
		t.Errorf("Load()[0] = %+v", got[0])
	}
	if got[1].Role != "assistant" || got[1].Content != "it is noon" {
		t.Errorf("Load()[1] = %+v", got[1])
	}
}

func TestStoreSkipsToolTurns(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	msgs := []llm.Message{
		{Role: "user", Content: "wave please"},
		{Role: "assistant", Content: "", ToolCalls: []llm.ToolCall{{ID: "1", Name: "play_motion"}}},
		{Role: "tool", Content: "Played motion \"wave\"", ToolCallID: "1"},
		{Role: "assistant", Content: "done!"},
	}
	if err := store.Save("mochi", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("mochi")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d messages, want 2 (tool turns skipped)", len(got))
	}
	if got[0].Content != "wave please" || got[1].Content != "done!" {
		t.Errorf("Load() = %+v", got)
	}
}

func TestStoreIsolatesPersonas(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Save("mochi", []llm.Message{{Role: "user", Content: "hi mochi"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("biscuit", []llm.Message{{Role: "user", Content: "hi biscuit"}}); err != nil {
		t.Fatal(err)
	}

	if err := store.Clear("mochi"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("mochi")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("mochi history = %v, want empty", got)
	}

	got, err = store.Load("biscuit")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("biscuit history = %v, want 1 message", got)
	}
}

func TestMemoryRestoresFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}

	m, err := New("mochi", 10, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Append(
		llm.Message{Role: "user", Content: "remember the cake"},
		llm.Message{Role: "assistant", Content: "I will"},
	)
	store.Close()

	store2, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()

	m2, err := New("mochi", 10, store2, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := m2.Messages()
	if len(got) != 2 {
		t.Fatalf("restored %d messages, want 2", len(got))
	}
	if got[0].Content != "remember the cake" {
		t.Errorf("restored[0] = %+v", got[0])
	}
}
