package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/pkg/events"
)

// Hub tracks the open sockets of every chat session. A session may have
// several (one per browser tab); answers and pipeline events reach all of them.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Debug("HUB", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.SessionID]
			for i, c := range clients {
				if c == client {
					h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.SessionID]) == 0 {
				delete(h.clients, client.SessionID)
			}
			h.mu.Unlock()
			h.logger.Debug("HUB", "Client unregistered", map[string]interface{}{"session_id": client.SessionID})
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToSession queues payload on every socket of the session. A client
// whose buffer is full is dropped.
func (h *Hub) SendToSession(sessionID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
			sent++
		default:
			h.logger.Warn("HUB", "Client send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			go h.remove(client)
		}
	}
	return sent
}

// sendTo queues payload for one client if it is still registered.
func (h *Hub) sendTo(c *Client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, registered := range h.clients[c.SessionID] {
		if registered != c {
			continue
		}
		select {
		case c.Send <- payload:
		default:
		}
		return
	}
}

// Publish pushes a pipeline event to the sockets of the session named in
// its payload. Events without a session are ignored.
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	sessionID, _ := evt.Payload()["session_id"].(string)
	if sessionID == "" {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":  "event",
		"event": evt,
	})
	if err != nil {
		return err
	}
	h.SendToSession(sessionID, data)
	return nil
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
