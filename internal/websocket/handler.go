package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub and blocks until it closes.
func ServeWs(ctx context.Context, hub *Hub, conn *websocket.Conn, sessionID string, handle FrameHandler) {
	client := &Client{Hub: hub, Conn: conn, SessionID: sessionID, Send: make(chan []byte, sendBuffer)}
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump(ctx, handle)
}
