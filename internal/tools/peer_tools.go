package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/desktopfriends/petagent/internal/schema"
)

// Peer identifies another pet reachable through the LAN relay.
type Peer struct {
	ID   string
	Name string
}

// PeerMessage is one message received from another pet.
type PeerMessage struct {
	FromID   string
	FromName string
	Content  string
}

// PeerMessenger is the inter-agent messaging collaborator. Discovery
// and relay topology live behind it; the agent only sees the roster
// and a send primitive.
type PeerMessenger interface {
	OnlinePets() ([]Peer, error)
	RecentMessages() ([]PeerMessage, error)
	SendMessageToPet(id, content string) error
	Broadcast(content string) error
}

func registerPeerTools(r *Registry, peers PeerMessenger) error {
	tools := []*Tool{
		{
			Name:        "list_online_pets",
			Description: "List the other pets currently online on this network.",
			Handler: func(_ context.Context, _ map[string]any) (string, error) {
				online, err := peers.OnlinePets()
				if err != nil {
					return "", err
				}
				if len(online) == 0 {
					return "No other pets are online.", nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "%d pet(s) online:\n", len(online))
				for _, p := range online {
					fmt.Fprintf(&b, "- %s (id: %s)\n", p.Name, p.ID)
				}
				return b.String(), nil
			},
		},
		{
			Name:        "get_recent_messages",
			Description: "Read recent messages from other pets.",
			Handler: func(_ context.Context, _ map[string]any) (string, error) {
				msgs, err := peers.RecentMessages()
				if err != nil {
					return "", err
				}
				if len(msgs) == 0 {
					return "No recent messages.", nil
				}
				var b strings.Builder
				for _, m := range msgs {
					fmt.Fprintf(&b, "%s: %s\n", m.FromName, m.Content)
				}
				return b.String(), nil
			},
		},
		{
			Name:        "send_message_to_pet",
			Description: "Send a message to one specific pet.",
			Params: schema.Params{
				"id":      {Kind: schema.String, Description: "The target pet id"},
				"content": {Kind: schema.String, Description: "The message"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				id, _ := args["id"].(string)
				content, _ := args["content"].(string)
				if id == "" || content == "" {
					return "", fmt.Errorf("id and content are required")
				}
				if err := peers.SendMessageToPet(id, content); err != nil {
					return "", err
				}
				return fmt.Sprintf("Message sent to %s", id), nil
			},
		},
		{
			Name:        "broadcast_message",
			Description: "Send a message to every pet on the network.",
			Params: schema.Params{
				"content": {Kind: schema.String, Description: "The message"},
			},
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				content, _ := args["content"].(string)
				if content == "" {
					return "", fmt.Errorf("content is required")
				}
				if err := peers.Broadcast(content); err != nil {
					return "", err
				}
				return "Message broadcast to all pets", nil
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
