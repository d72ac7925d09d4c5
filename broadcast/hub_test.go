package broadcast

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/terrarium/engine"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublishDeliversSnapshotToConnectedClient(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv)

	waitForClientCount(t, h, 1)

	h.Publish(engine.Snapshot{Tick: 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got engine.Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Tick != 7 {
		t.Errorf("expected tick 7, got %d", got.Tick)
	}
}

// The hub has no read loop on the server side, only writes, so a closed
// client is detected on the next failed Publish rather than immediately.
func TestClientDroppedAfterDisconnectOnNextPublish(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClientCount(t, h, 1)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount() > 0 {
		h.Publish(engine.Snapshot{Tick: 1})
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("expected client count 0 after disconnect, got %d", got)
	}
}

func TestPublishWithNoClientsDoesNotBlock(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Publish(engine.Snapshot{Tick: 1})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no clients connected")
	}
}

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ClientCount never reached %d, last was %d", want, h.ClientCount())
}
