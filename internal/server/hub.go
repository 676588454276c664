package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/roach88/derby/internal/engine"
)

// Message types pushed to clients.
const (
	TypeState        = "state"
	TypeEvent        = "event"
	TypeNotification = "notification"
	TypeAck          = "ack"
	TypeError        = "error"
)

// Message is the envelope of everything the server sends over /ws.
type Message struct {
	Type         string               `json:"type"`
	Event        *engine.Event        `json:"event,omitempty"`
	Notification *engine.Notification `json:"notification,omitempty"`
	State        *engine.Snapshot     `json:"state,omitempty"`
	Command      string               `json:"command,omitempty"`
	Paused       *bool                `json:"paused,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// sendBuffer is the per-client outbound queue. A client that falls this far
// behind is dropped.
const sendBuffer = 256

type client struct {
	send chan []byte
}

// Hub fans engine events and notifications out to connected clients.
// It implements engine.Notifier.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Notify broadcasts a notification to every client.
func (h *Hub) Notify(n engine.Notification) {
	h.Broadcast(Message{Type: TypeNotification, Notification: &n})
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encode broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueLocked(c, data)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run drains feed and broadcasts each event until ctx is done or the feed
// is closed and empty.
func (h *Hub) Run(ctx context.Context, feed *engine.Feed) {
	for {
		for {
			ev, ok := feed.TryNext()
			if !ok {
				break
			}
			h.Broadcast(Message{Type: TypeEvent, Event: &ev})
		}
		if feed.Closed() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-feed.Wait():
		}
	}
}

func (h *Hub) register() *client {
	c := &client{send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// reply sends msg to a single client.
func (h *Hub) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encode reply", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueLocked(c, data)
	}
}

func (h *Hub) enqueueLocked(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		slog.Warn("dropping slow websocket client", "queued", len(c.send))
		h.removeLocked(c)
	}
}

// removeLocked closes the client's queue; its writer then closes the
// connection.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
