package monitor

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(testLogger())
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Notify(Alert{Kind: KindStopLoss, Code: "600001", Name: "甲股份", Price: 9.1, PnLPct: -9, Message: "跌破止损价"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Alert
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, KindStopLoss, got.Kind)
	assert.Equal(t, "600001", got.Code)
	assert.InDelta(t, -9.0, got.PnLPct, 1e-9)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := NewHub(testLogger())
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Close()

	first := dialHub(t, srv)
	second := dialHub(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	h.Notify(Alert{Kind: KindTakeProfit, Code: "600002"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var got Alert
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "600002", got.Code)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	h := NewHub(testLogger())
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub(testLogger())
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Close()
	assert.Zero(t, h.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
