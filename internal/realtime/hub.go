// file: internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"scholarhub/internal/config"
	"scholarhub/internal/events"
	"scholarhub/internal/metrics"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const relayHandlerID = "realtime-relay"

// relayedPatterns are the event families that name realtime rooms.
var relayedPatterns = []string{"application.*", "document.*", "chat.*"}

// Message is the frame pushed to clients.
type Message struct {
	Event     string          `json:"event"`
	Room      string          `json:"room"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// inbound is a frame sent by a client.
type inbound struct {
	Action string `json:"action"` // join, leave, chat
	Room   string `json:"room"`
	Text   string `json:"text"`
}

// Hub fans events out to websocket clients grouped in rooms.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	bus      events.EventBus
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
	closed   bool
}

// NewHub creates a hub. Call Attach to start relaying bus events.
func NewHub(cfg config.RealtimeConfig, bus events.EventBus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}

	h := &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Attach subscribes the hub to the routable event families on the bus.
func (h *Hub) Attach() error {
	handler := events.NewTypedEventHandler(relayHandlerID, h.relay)
	for _, pattern := range relayedPatterns {
		if err := h.bus.SubscribePattern(pattern, handler); err != nil {
			return err
		}
	}
	return nil
}

// relay forwards an event to the rooms it names.
func (h *Hub) relay(ctx context.Context, event events.Routable) error {
	for _, room := range event.Rooms() {
		h.Emit(event.GetEventType(), room, event)
	}
	return nil
}

// Emit sends payload to every client in room. Slow clients are dropped
// instead of blocking the sender.
func (h *Hub) Emit(eventName, room string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("Failed to encode realtime payload", zap.String("event", eventName), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Message{Event: eventName, Room: room, Payload: body, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(frame) {
			h.logger.Warn("Dropping slow websocket client",
				zap.Int64("user_id", c.principal.UserID),
				zap.String("room", room))
			h.unregister(c)
		}
	}
}

// ServeWS upgrades the request and registers the client in its default
// rooms: its own user room, plus the staff room for back-office users.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, p *models.Principal) {
	if p == nil {
		response.QuickError(w, r, services.NewUnauthorizedError("Authentication required"))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Int64("user_id", p.UserID), zap.Error(err))
		return
	}

	c := newClient(h, conn, p)
	if !h.register(c) {
		conn.Close()
		return
	}
	h.join(c, events.UserRoom(p.UserID))
	if p.IsStaffOrAdmin() {
		h.join(c, events.StaffRoom)
	}
	h.logger.Info("WebSocket client connected", zap.Int64("user_id", p.UserID), zap.String("role", string(p.Role)))

	go c.writePump()
	c.readPump()
}

// handle processes one client frame.
func (h *Hub) handle(c *Client, msg inbound) error {
	switch msg.Action {
	case "join":
		if !isChatRoom(msg.Room) {
			return errors.New("only chat rooms can be joined")
		}
		h.join(c, msg.Room)
	case "leave":
		if !isChatRoom(msg.Room) {
			return errors.New("only chat rooms can be left")
		}
		h.leave(c, msg.Room)
	case "chat":
		if !c.inRoom(msg.Room) || !isChatRoom(msg.Room) {
			return errors.New("join the room before posting")
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return errors.New("empty message")
		}
		event := events.NewChatMessageEvent(c.principal.UserID, msg.Room, text)
		if err := h.bus.PublishAsync(context.Background(), event); err != nil {
			h.logger.Warn("Failed to publish chat message", zap.String("room", msg.Room), zap.Error(err))
			return errors.New("message not delivered")
		}
	default:
		return errors.New("unknown action")
	}
	return nil
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.RealtimeConnected(1)
	return true
}

// unregister removes c from every room and closes its send queue. Safe
// to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.removeLocked(c, room)
	}
	h.mu.Unlock()

	c.closeSend()
	metrics.RealtimeConnected(-1)
	h.logger.Info("WebSocket client disconnected", zap.Int64("user_id", c.principal.UserID))
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	handler := events.NewTypedEventHandler(relayHandlerID, h.relay)
	var errs []error
	for _, pattern := range relayedPatterns {
		errs = append(errs, h.bus.Unsubscribe(pattern, handler))
	}
	return errors.Join(errs...)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)
}

func isChatRoom(room string) bool {
	return strings.HasPrefix(room, "chat:") && len(room) > len("chat:") && len(room) <= 100
}
