package hub

import (
	"encoding/json"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Controls is the administrative surface a client can drive: switching the
// active output mode, selecting a slot's profile, and injecting host
// output reports (rumble/LED) into the active mode.
type Controls interface {
	SetMode(name string) error
	SetProfile(slot, profileID int) error
	OutputReport(playerIndex int, data []byte)
}

// Client represents a connected WebSocket viewer.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	playerIndex atomic.Int32 // player index this client is subscribed to, 0 by default
	log         *zap.SugaredLogger
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn, log *zap.SugaredLogger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		log:  log,
	}
}

// WritePump sends messages from the send channel to the WebSocket
// connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// ReadPump reads client messages and applies them through ctrl.
func (c *Client) ReadPump(ctrl Controls) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Warnf("bad client message: %v", err)
			continue
		}

		switch msg.Type {
		case "select_player":
			c.playerIndex.Store(int32(msg.PlayerIndex))
			if data, err := json.Marshal(NewPlayerSelectedMessage(msg.PlayerIndex)); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}

		case "output_report":
			ctrl.OutputReport(msg.PlayerIndex, msg.Data)

		case "set_mode":
			if err := ctrl.SetMode(msg.Mode); err != nil {
				c.log.Warnf("set_mode %q: %v", msg.Mode, err)
			}

		case "set_profile":
			if err := ctrl.SetProfile(msg.Slot, msg.Profile); err != nil {
				c.log.Warnf("set_profile slot %d -> %d: %v", msg.Slot, msg.Profile, err)
			}
		}
	}
}
