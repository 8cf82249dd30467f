package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	config "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Config"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
)

func testLiveConfig() config.LiveConfig {
	return config.LiveConfig{
		WriteWait:      time.Second,
		PongWait:       5 * time.Second,
		SendBuffer:     8,
		MaxMessageSize: 512,
	}
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(testLiveConfig(), logger.Nop())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := hub.Upgrade(w, r)
		require.NoError(t, err)
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestHub_WelcomeThenBroadcast(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	var welcome flpmodels.WelcomeMessage
	readJSON(t, conn, &welcome)
	require.Equal(t, "Connected to real-time updates", welcome.Message)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	msg := flpmodels.BroadcastMessage{PatientID: "64b7f0c2a1d3e4f5a6b7c8d9", ImageURL: "u", Temperature: 31.5}
	delivered, err := hub.Broadcast(msg)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	var got flpmodels.BroadcastMessage
	readJSON(t, conn, &got)
	require.Equal(t, msg, got)
}

func TestHub_BroadcastReachesEveryViewerInOrder(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)

	var welcome flpmodels.WelcomeMessage
	readJSON(t, a, &welcome)
	readJSON(t, b, &welcome)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	for _, temp := range []float64{31, 32} {
		_, err := hub.Broadcast(flpmodels.BroadcastMessage{PatientID: "p", ImageURL: "u", Temperature: temp})
		require.NoError(t, err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		var first, second flpmodels.BroadcastMessage
		readJSON(t, conn, &first)
		readJSON(t, conn, &second)
		require.Equal(t, 31.0, first.Temperature)
		require.Equal(t, 32.0, second.Temperature)
	}
}

func TestHub_BroadcastWithoutViewers(t *testing.T) {
	hub := NewHub(testLiveConfig(), logger.Nop())

	delivered, err := hub.Broadcast(flpmodels.BroadcastMessage{PatientID: "p"})
	require.NoError(t, err)
	require.Zero(t, delivered)
	require.Zero(t, hub.Count())
}

func TestHub_DisconnectDetachesSession(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	var welcome flpmodels.WelcomeMessage
	readJSON(t, conn, &welcome)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	delivered, err := hub.Broadcast(flpmodels.BroadcastMessage{PatientID: "p"})
	require.NoError(t, err)
	require.Zero(t, delivered)
}

func TestHub_BroadcastRejectsUnmarshalable(t *testing.T) {
	hub := NewHub(testLiveConfig(), logger.Nop())
	_, err := hub.Broadcast(make(chan int))
	require.Error(t, err)
}

func TestSession_EnqueueDropsWhenFullOrClosed(t *testing.T) {
	hub := NewHub(testLiveConfig(), logger.Nop())
	s := newSession(hub, nil, 1)

	require.True(t, s.Open())
	require.True(t, s.enqueue([]byte("a")))
	require.False(t, s.enqueue([]byte("b")))

	s.close()
	s.close()
	require.False(t, s.Open())
	require.False(t, s.enqueue([]byte("c")))
}
