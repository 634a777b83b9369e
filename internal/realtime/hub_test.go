package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gaugeStub struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeStub) SetRealtimeClients(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *gaugeStub) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func startHub(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHubBroadcastsEvents(t *testing.T) {
	gauge := &gaugeStub{}
	hub := NewHub(nil, gauge, nil)
	url := startHub(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, gauge.value())

	hub.Publish("timetable.committed", map[string]string{"slot": "MONDAY/AM"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frame, &evt))
	assert.Equal(t, "timetable.committed", evt.Type)
	assert.Equal(t, "MONDAY/AM", evt.Payload["slot"])
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	gauge := &gaugeStub{}
	hub := NewHub(nil, gauge, nil)
	url := startHub(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, gauge.value())
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"https://planner.example"}, nil, nil)
	url := startHub(t, hub)

	header := map[string][]string{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestHubCloseAndNilPublish(t *testing.T) {
	var nilHub *Hub
	assert.NotPanics(t, func() { nilHub.Publish("noop", nil) })

	hub := NewHub(nil, nil, nil)
	hub.Close()
	assert.NotPanics(t, func() { hub.Publish("after.close", nil) })
	assert.Equal(t, 0, hub.ClientCount())
}
