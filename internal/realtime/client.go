package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"scholarhub/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one websocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	principal *models.Principal
	send      chan []byte

	// rooms is guarded by hub.mu
	rooms map[string]struct{}

	closeOnce sync.Once
	sendMu    sync.Mutex
	sendDone  bool
}

func newClient(h *Hub, conn *websocket.Conn, p *models.Principal) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		principal: p,
		send:      make(chan []byte, h.cfg.SendBuffer),
		rooms:     make(map[string]struct{}),
	}
}

// enqueue queues a frame without blocking. It reports false when the
// client's buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendDone {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.sendDone = true
		close(c.send)
		c.sendMu.Unlock()
	})
}

func (c *Client) inRoom(room string) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	pongWait := c.hub.cfg.PingInterval * 2
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("WebSocket read error", zap.Int64("user_id", c.principal.UserID), zap.Error(err))
			}
			return
		}
		if err := c.hub.handle(c, msg); err != nil {
			c.reply(msg, err)
		}
	}
}

// reply tells the client why a frame was rejected.
func (c *Client) reply(msg inbound, err error) {
	body, _ := json.Marshal(map[string]string{"action": msg.Action, "error": err.Error()})
	frame, _ := json.Marshal(Message{Event: "error", Room: msg.Room, Payload: body, Timestamp: time.Now().UTC()})
	c.enqueue(frame)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.hub.logger.Debug("WebSocket write error", zap.Int64("user_id", c.principal.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
