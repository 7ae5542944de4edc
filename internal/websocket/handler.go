package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches c to the hub as a viewer of sessionID. initial, when not
// empty, is queued before any broadcast so the viewer starts from the
// current view.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, initial []byte) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256)}
	if len(initial) > 0 {
		client.Send <- initial
	}
	select {
	case client.Hub.register <- client:
	case <-client.Hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
