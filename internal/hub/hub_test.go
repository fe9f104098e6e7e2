package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeControls struct {
	mu       sync.Mutex
	modes    []string
	profiles [][2]int
	reports  []int
}

func (c *fakeControls) SetMode(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes = append(c.modes, name)
	return nil
}

func (c *fakeControls) SetProfile(slot, profileID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = append(c.profiles, [2]int{slot, profileID})
	return nil
}

func (c *fakeControls) OutputReport(playerIndex int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, playerIndex)
}

type staticModeName string

func (s staticModeName) ActiveName() string { return string(s) }

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func newHubServer(t *testing.T, ctrl Controls) (*Hub, *httptest.Server) {
	t.Helper()
	log := zap.NewNop().Sugar()
	h := NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(h, conn, log)
		h.Register(client)
		go client.WritePump()
		go client.ReadPump(ctrl)
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func dialViewer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestBroadcastReachesSubscribedViewer(t *testing.T) {
	h, srv := newHubServer(t, &fakeControls{})
	conn := dialViewer(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	b := NewBroadcaster(h, staticModeName("hid"), zap.NewNop().Sugar())
	assert.True(t, b.Ready())

	// Viewers subscribe to player 0 by default; a player 1 report must not
	// reach this one.
	assert.True(t, b.WriteReport(1, []byte{0xAA}))
	assert.True(t, b.WriteReport(0, []byte{0x01, 0x02}))

	msg := readMessage(t, conn)
	assert.Equal(t, "report", msg.Type)
	assert.Equal(t, "hid", msg.Mode)
	assert.Equal(t, 0, msg.PlayerIndex)
	assert.Equal(t, []byte{0x01, 0x02}, msg.Report)
	assert.Positive(t, msg.Seq)
}

func TestBroadcasterNotReadyWithoutViewers(t *testing.T) {
	h, _ := newHubServer(t, &fakeControls{})
	b := NewBroadcaster(h, staticModeName("hid"), zap.NewNop().Sugar())

	assert.False(t, b.Ready())
	assert.False(t, b.WriteReport(0, []byte{0x01}))
}

func TestSelectPlayerResubscribes(t *testing.T) {
	h, srv := newHubServer(t, &fakeControls{})
	conn := dialViewer(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "select_player", PlayerIndex: 2}))

	msg := readMessage(t, conn)
	assert.Equal(t, "player_selected", msg.Type)
	assert.Equal(t, 2, msg.PlayerIndex)

	b := NewBroadcaster(h, staticModeName("xinput"), zap.NewNop().Sugar())
	assert.True(t, b.WriteReport(2, []byte{0x07}))

	msg = readMessage(t, conn)
	assert.Equal(t, "report", msg.Type)
	assert.Equal(t, 2, msg.PlayerIndex)
}

func TestClientMessagesReachControls(t *testing.T) {
	ctrl := &fakeControls{}
	h, srv := newHubServer(t, ctrl)
	conn := dialViewer(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "set_mode", Mode: "gcadapter"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "set_profile", Slot: 1, Profile: 2}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "output_report", PlayerIndex: 0, Data: []byte{0x80, 0x40}}))

	require.Eventually(t, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return len(ctrl.modes) == 1 && len(ctrl.profiles) == 1 && len(ctrl.reports) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	assert.Equal(t, "gcadapter", ctrl.modes[0])
	assert.Equal(t, [2]int{1, 2}, ctrl.profiles[0])
	assert.Equal(t, 0, ctrl.reports[0])
}

func TestViewerDisconnectUpdatesCount(t *testing.T) {
	h, srv := newHubServer(t, &fakeControls{})
	conn := dialViewer(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub loop did not stop after cancel")
	}
}
