package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/desktopfriends/petagent/internal/schema"
)

// Todo is one entry in the desktop todo widget.
type Todo struct {
	ID   string
	Text string
	Done bool
}

// WidgetContext is the desktop-widget collaborator. The widget process
// owns the data; the agent reads and mutates it only through here.
type WidgetContext interface {
	Todos() ([]Todo, error)
	AddTodo(text string) (Todo, error)
	CompleteTodo(id string) error

	// WidgetContexts returns free-form context strings from any other
	// widgets on the desktop (clock, weather, notes...).
	WidgetContexts() ([]string, error)
}

func registerWidgetTools(r *Registry, widgets WidgetContext) error {
	tools := []*Tool{
		{
			Name:        "get_todos",
			Description: "List the user's todo items from the desktop widget.",
			Handler: func(_ context.Context, _ map[string]any) (string, error) {
				todos, err := widgets.Todos()
				if err != nil {
					return "", err
				}
				if len(todos) == 0 {
					return "No todos.", nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Found %d todo(s):\n", len(todos))
				for _, td := range todos {
					status := " "
					if td.Done {
						status = "x"
					}
					fmt.Fprintf(&b, "- [%s] %s (id: %s)\n", status, td.Text, td.ID)
				}
				return b.String(), nil
			},
		},
		{
			Name:        "add_todo",
			Description: "Add a todo item to the desktop widget.",
			Params: schema.Params{
				"text": {Kind: schema.String, Description: "The todo text"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				text, _ := args["text"].(string)
				if text == "" {
					return "", fmt.Errorf("text is required")
				}
				td, err := widgets.AddTodo(text)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added todo %q (id: %s)", td.Text, td.ID), nil
			},
		},
		{
			Name:        "complete_todo",
			Description: "Mark a todo item as done.",
			Params: schema.Params{
				"id": {Kind: schema.String, Description: "The todo id"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				id, _ := args["id"].(string)
				if id == "" {
					return "", fmt.Errorf("id is required")
				}
				if err := widgets.CompleteTodo(id); err != nil {
					return "", err
				}
				return fmt.Sprintf("Todo %s completed", id), nil
			},
		},
		{
			Name:        "get_widget_contexts",
			Description: "Read context from the other desktop widgets (clock, weather, notes).",
			Handler: func(_ context.Context, _ map[string]any) (string, error) {
				ctxs, err := widgets.WidgetContexts()
				if err != nil {
					return "", err
				}
				if len(ctxs) == 0 {
					return "No widget context available.", nil
				}
				return strings.Join(ctxs, "\n"), nil
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
