package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startServer(t *testing.T) (*ConnectionManager, *httptest.Server) {
	t.Helper()
	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go cm.Start(ctx)

	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return cm, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/auction?user_id=observer"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesEveryObserver(t *testing.T) {
	cm, srv := startServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	eventually(t, func() bool { return cm.ConnectionCount() == 2 })

	s := models.NewSession()
	s.Round = 3
	ev := events.TimerUpdated(s, time.Now())
	assert.NoError(t, cm.Publish(context.Background(), ev))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		assert.NoError(t, err)

		var got events.Event
		assert.NoError(t, json.Unmarshal(data, &got))
		check.Equal(t, ev.ID, got.ID)
		check.Equal(t, events.TypeTimerUpdated, got.Type)
		check.Equal(t, 3, got.Session.Round)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	cm, srv := startServer(t)
	conn := dial(t, srv)
	eventually(t, func() bool { return cm.ConnectionCount() == 1 })

	conn.Close()
	eventually(t, func() bool { return cm.ConnectionCount() == 0 })
}

func TestPublishWithoutObserversDoesNotBlock(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.BroadcastBuffer = 1
	cm := NewConnectionManager(cfg)

	// nothing drains the channel; the second publish must drop, not block
	check.NoError(t, cm.Publish(context.Background(), events.TimerUpdated(models.NewSession(), time.Now())))
	check.NoError(t, cm.Publish(context.Background(), events.TimerUpdated(models.NewSession(), time.Now())))
}

func TestConnectionStats(t *testing.T) {
	cm, srv := startServer(t)
	dial(t, srv)
	eventually(t, func() bool { return cm.ConnectionCount() == 1 })

	resp, err := http.Get(srv.URL + "/ws/stats")
	assert.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]int
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	check.Equal(t, 1, body["total_connections"])
}
