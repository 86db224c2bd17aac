// Package peers implements the LAN relay client used for pet-to-pet
// messaging. The relay handles discovery and fan-out; this client
// keeps a roster, an inbox of recent messages, and a send primitive.
package peers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desktopfriends/petagent/internal/tools"
)

// inboxSize bounds how many received messages are kept for
// get_recent_messages.
const inboxSize = 50

// envelope is the wire format both directions on the relay socket.
type envelope struct {
	Type string `json:"type"` // hello, roster, message, broadcast

	// hello (client -> relay)
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	// roster (relay -> client)
	Peers []wirePeer `json:"peers,omitempty"`

	// message / broadcast
	To      string    `json:"to,omitempty"`
	From    *wirePeer `json:"from,omitempty"`
	Content string    `json:"content,omitempty"`
}

type wirePeer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is a relay connection for one persona. It implements
// [tools.PeerMessenger].
type Client struct {
	url    string
	selfID string
	name   string
	logger *slog.Logger

	connMu sync.Mutex // serializes writes and reconnect
	conn   *websocket.Conn

	mu     sync.Mutex
	roster []tools.Peer
	inbox  []tools.PeerMessage
}

// NewClient creates a relay client. Connect must be called before the
// messaging methods work.
func NewClient(url, selfID, name string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:    url,
		selfID: selfID,
		name:   name,
		logger: logger.With("component", "peers", "persona", selfID),
	}
}

// Connect dials the relay, announces this pet, and starts the read
// loop. The read loop ends when the connection drops or Close is
// called; it does not reconnect on its own.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	c.logger.Info("connecting to relay", "url", c.url)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}

	hello := envelope{Type: "hello", ID: c.selfID, Name: c.name}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return fmt.Errorf("announce to relay: %w", err)
	}

	c.conn = conn
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.logger.Info("relay connection closed", "error", err)
			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.connMu.Unlock()
			return
		}

		switch env.Type {
		case "roster":
			roster := make([]tools.Peer, 0, len(env.Peers))
			for _, p := range env.Peers {
				if p.ID == c.selfID {
					continue
				}
				roster = append(roster, tools.Peer{ID: p.ID, Name: p.Name})
			}
			c.mu.Lock()
			c.roster = roster
			c.mu.Unlock()
			c.logger.Debug("roster updated", "peers", len(roster))

		case "message", "broadcast":
			if env.From == nil {
				continue
			}
			msg := tools.PeerMessage{
				FromID:   env.From.ID,
				FromName: env.From.Name,
				Content:  env.Content,
			}
			c.mu.Lock()
			c.inbox = append(c.inbox, msg)
			if n := len(c.inbox) - inboxSize; n > 0 {
				c.inbox = append(c.inbox[:0], c.inbox[n:]...)
			}
			c.mu.Unlock()
			c.logger.Debug("peer message received", "from", env.From.ID)

		default:
			c.logger.Debug("ignoring relay frame", "type", env.Type)
		}
	}
}

// Close tears down the relay connection.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// OnlinePets returns the current roster, excluding this pet.
func (c *Client) OnlinePets() ([]tools.Peer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tools.Peer, len(c.roster))
	copy(out, c.roster)
	return out, nil
}

// RecentMessages returns the most recent received messages, oldest
// first.
func (c *Client) RecentMessages() ([]tools.PeerMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tools.PeerMessage, len(c.inbox))
	copy(out, c.inbox)
	return out, nil
}

// SendMessageToPet sends a direct message through the relay.
func (c *Client) SendMessageToPet(id, content string) error {
	return c.write(envelope{Type: "message", To: id, Content: content})
}

// Broadcast sends a message to every pet on the relay.
func (c *Client) Broadcast(content string) error {
	return c.write(envelope{Type: "broadcast", Content: content})
}

func (c *Client) write(env envelope) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected to relay")
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write to relay: %w", err)
	}
	return nil
}
