package websocket

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 32
)

// FrameHandler answers one inbound frame. When broadcast is true the reply
// goes to every socket of the session, otherwise only to the sender.
type FrameHandler func(ctx context.Context, sessionID string, frame []byte) (reply []byte, broadcast bool)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte
}

// readPump feeds inbound frames to handle, one at a time.
func (c *Client) readPump(ctx context.Context, handle FrameHandler) {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("HUB", "Socket closed unexpectedly", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}

		// a chat turn can outlast the pong deadline
		_ = c.Conn.SetReadDeadline(time.Time{})
		reply, broadcast := handle(ctx, c.SessionID, frame)
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply == nil {
			continue
		}
		if broadcast {
			c.Hub.SendToSession(c.SessionID, reply)
			continue
		}
		c.Hub.sendTo(c, reply)
	}
}

// writePump drains Send into the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
