package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"scholarhub/internal/config"
	"scholarhub/internal/events"
	"scholarhub/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type hubFixture struct {
	hub    *Hub
	bus    events.EventBus
	server *httptest.Server
}

// newHubFixture serves the hub with the principal taken from query
// parameters, standing in for the auth middleware.
func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	bus := events.NewInMemoryEventBus(&events.EventBusConfig{BufferSize: 64, WorkerCount: 1}, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	hub := NewHub(config.RealtimeConfig{SendBuffer: 16, PingInterval: 5 * time.Second, WriteTimeout: time.Second}, bus, zap.NewNop())
	require.NoError(t, hub.Attach())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		if id == 0 {
			hub.ServeWS(w, r, nil)
			return
		}
		hub.ServeWS(w, r, &models.Principal{UserID: id, Role: models.Role(r.URL.Query().Get("role"))})
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bus.Stop(ctx)
	})
	return &hubFixture{hub: hub, bus: bus, server: server}
}

func (f *hubFixture) dial(t *testing.T, userID int64, role models.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?user=" + strconv.FormatInt(userID, 10) + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	room := events.UserRoom(userID)
	require.Eventually(t, func() bool { return f.hub.RoomSize(room) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeWS_RequiresPrincipal(t *testing.T) {
	f := newHubFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_DefaultRooms(t *testing.T) {
	f := newHubFixture(t)

	f.dial(t, 10, models.RoleApplicant)
	f.dial(t, 5, models.RoleStaff)

	assert.Equal(t, 2, f.hub.ClientCount())
	assert.Equal(t, 1, f.hub.RoomSize(events.UserRoom(10)))
	assert.Equal(t, 1, f.hub.RoomSize(events.UserRoom(5)))
	assert.Equal(t, 1, f.hub.RoomSize(events.StaffRoom))
}

func TestRelay_ApplicationEventReachesOwnerAndStaff(t *testing.T) {
	f := newHubFixture(t)
	owner := f.dial(t, 10, models.RoleApplicant)
	staff := f.dial(t, 5, models.RoleStaff)

	event := events.NewApplicationEvent(events.ApplicationSubmitted, 10, 42, 10, "job:1", "in_progress", "submitted", 80)
	require.NoError(t, f.bus.PublishAsync(context.Background(), event))

	for _, conn := range []*websocket.Conn{owner, staff} {
		msg := readMessage(t, conn)
		assert.Equal(t, events.ApplicationSubmitted, msg.Event)

		var payload events.ApplicationEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, int64(42), payload.ApplicationID)
		assert.Equal(t, "submitted", payload.ToStatus)
	}
	assert.Equal(t, events.UserRoom(10), readMessageRoom(t, owner, f, 10))
}

// readMessageRoom emits a marker to the user room and returns the room
// it arrived through, proving nothing else was queued for the client.
func readMessageRoom(t *testing.T, conn *websocket.Conn, f *hubFixture, userID int64) string {
	t.Helper()
	f.hub.Emit("marker", events.UserRoom(userID), map[string]bool{"ok": true})
	msg := readMessage(t, conn)
	require.Equal(t, "marker", msg.Event)
	return msg.Room
}

func TestRelay_OtherApplicantsSeeNothing(t *testing.T) {
	f := newHubFixture(t)
	other := f.dial(t, 11, models.RoleApplicant)

	event := events.NewDocumentEvent(events.DocumentUploaded, 10, 1, 10, "cv", 100, false)
	require.NoError(t, f.bus.PublishAsync(context.Background(), event))

	assert.Equal(t, events.UserRoom(11), readMessageRoom(t, other, f, 11))
}

func TestRelay_SkipsEventsWithoutRooms(t *testing.T) {
	f := newHubFixture(t)

	require.NoError(t, f.bus.Publish(context.Background(), events.NewUserEvent(events.UserLoggedIn, 10, "ana@example.com", "applicant")))
	require.NoError(t, f.bus.Publish(context.Background(), events.NewDocumentEvent(events.DocumentUploaded, 10, 1, 10, "cv", 100, false)))
	assert.Zero(t, f.bus.Stats().EventsFailed)
}

func TestChat_JoinPostLeave(t *testing.T) {
	f := newHubFixture(t)
	alice := f.dial(t, 10, models.RoleApplicant)
	bob := f.dial(t, 11, models.RoleApplicant)
	room := events.ChatRoom("lobby")

	require.NoError(t, alice.WriteJSON(inbound{Action: "join", Room: room}))
	require.NoError(t, bob.WriteJSON(inbound{Action: "join", Room: room}))
	require.Eventually(t, func() bool { return f.hub.RoomSize(room) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, alice.WriteJSON(inbound{Action: "chat", Room: room, Text: "  hello  "}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readMessage(t, conn)
		assert.Equal(t, events.ChatMessage, msg.Event)
		assert.Equal(t, room, msg.Room)
		var payload events.ChatMessageEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "hello", payload.Text)
		assert.Equal(t, int64(10), payload.Sender)
	}

	require.NoError(t, bob.WriteJSON(inbound{Action: "leave", Room: room}))
	require.Eventually(t, func() bool { return f.hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)
}

func TestChat_Rejections(t *testing.T) {
	cases := []struct {
		name string
		msg  inbound
	}{
		{"post without joining", inbound{Action: "chat", Room: events.ChatRoom("lobby"), Text: "hi"}},
		{"join private room", inbound{Action: "join", Room: events.UserRoom(99)}},
		{"join staff room", inbound{Action: "join", Room: events.StaffRoom}},
		{"unknown action", inbound{Action: "shout", Room: events.ChatRoom("lobby")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHubFixture(t)
			conn := f.dial(t, 10, models.RoleApplicant)

			require.NoError(t, conn.WriteJSON(tc.msg))
			msg := readMessage(t, conn)
			assert.Equal(t, "error", msg.Event)
			assert.Zero(t, f.hub.RoomSize(events.StaffRoom))
		})
	}
}

func TestClose_DisconnectsClients(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t, 10, models.RoleApplicant)

	require.NoError(t, f.hub.Close())
	assert.Zero(t, f.hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub(config.RealtimeConfig{AllowedOrigins: []string{"https://app.example.com"}}, events.NewInMemoryEventBus(nil, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, h.checkOrigin(req))
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, h.checkOrigin(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, h.checkOrigin(req))
}
