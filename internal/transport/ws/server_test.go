package ws

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, w *world) string {
	t.Helper()
	return startServerWith(t, w, Config{PingInterval: time.Second, WriteTimeout: time.Second, ReadLimit: 1 << 16})
}

func startServerWith(t *testing.T, w *world, cfg Config) string {
	t.Helper()
	srv := NewServer(w.ctrl, cfg, nil)

	r := chi.NewRouter()
	r.Get("/ws/chats/{id}", srv.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		w.hub.CloseAll()
		ts.Close()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func expectClose(t *testing.T, c *websocket.Conn, code int) {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(waitFor))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, code), "got %v", err)
}

func TestServer_ChatRoundTrip(t *testing.T) {
	w := newWorld(t)
	base := startServer(t, w)

	seller := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.seller)))
	buyer := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.buyer)))
	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 2 }, waitFor, 5*time.Millisecond)

	require.NoError(t, buyer.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`)))

	var got ChatFrame
	_ = seller.SetReadDeadline(time.Now().Add(waitFor))
	require.NoError(t, seller.ReadJSON(&got))
	assert.Equal(t, w.buyer.ID, got.AuthorID)
	assert.Equal(t, "bob", got.AuthorName)
	assert.Equal(t, "hi", got.Text)
	_, err := time.Parse(time.RFC3339Nano, got.CreatedAt)
	require.NoError(t, err)

	// the sender gets its own copy
	var echo ChatFrame
	_ = buyer.SetReadDeadline(time.Now().Add(waitFor))
	require.NoError(t, buyer.ReadJSON(&echo))
	assert.Equal(t, got, echo)

	assert.Equal(t, 1, w.store.Messages().Count(w.chat.ID))

	require.NoError(t, buyer.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 1 }, waitFor, 5*time.Millisecond)
}

func TestServer_RejectsWithPolicyViolation(t *testing.T) {
	w := newWorld(t)
	base := startServer(t, w)

	cases := map[string]string{
		"no token":        fmt.Sprintf("%s/ws/chats/%d", base, w.chat.ID),
		"bad token":       fmt.Sprintf("%s/ws/chats/%d?token=nope", base, w.chat.ID),
		"not participant": fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.stranger)),
		"bad chat id":     fmt.Sprintf("%s/ws/chats/abc?token=%s", base, w.token(t, w.buyer)),
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			c := dial(t, url)
			expectClose(t, c, websocket.ClosePolicyViolation)
			assert.Equal(t, 0, w.hub.Rooms())
		})
	}
}

func TestServer_SlowConsumerIsEvicted(t *testing.T) {
	w := newWorld(t)
	const writeTimeout = 5 * time.Second
	base := startServerWith(t, w, Config{WriteTimeout: writeTimeout, SendQueue: 4})

	stalled := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.seller)))
	reader := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.buyer)))
	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 2 }, waitFor, 5*time.Millisecond)

	var received atomic.Int64
	go func() {
		for {
			if _, _, err := reader.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	frame := bytes.Repeat([]byte("x"), 1<<20)
	sent := 0
	for sent < 64 && w.hub.Size(w.chat.ID) == 2 {
		start := time.Now()
		w.hub.Broadcast(w.chat.ID, frame)
		assert.Less(t, time.Since(start), writeTimeout/5, "broadcast must not wait on the stalled peer")
		sent++

		want := int64(sent)
		require.Eventually(t, func() bool { return received.Load() == want }, waitFor, time.Millisecond)
	}

	require.Equal(t, 1, w.hub.Size(w.chat.ID), "stalled peer still in the room after %d frames", sent)
	assert.Equal(t, int64(sent), received.Load(), "reader got every frame")

	// the stalled client drains what was buffered and then sees the socket go
	// away once the blocked write gives up
	_ = stalled.SetReadDeadline(time.Now().Add(3 * writeTimeout))
	var err error
	for err == nil {
		_, _, err = stalled.ReadMessage()
	}
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed, not idle")
	}
}

func TestServer_IdleTimeoutClosesSilentClient(t *testing.T) {
	w := newWorld(t)
	base := startServerWith(t, w, Config{WriteTimeout: time.Second, IdleTimeout: 150 * time.Millisecond})

	c := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.buyer)))
	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 1 }, waitFor, 5*time.Millisecond)

	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 0 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, 0, w.hub.Rooms())

	_ = c.SetReadDeadline(time.Now().Add(waitFor))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestServer_ActiveClientOutlivesIdleTimeout(t *testing.T) {
	w := newWorld(t)
	base := startServerWith(t, w, Config{WriteTimeout: time.Second, IdleTimeout: 300 * time.Millisecond})

	c := dial(t, fmt.Sprintf("%s/ws/chats/%d?token=%s", base, w.chat.ID, w.token(t, w.buyer)))
	require.Eventually(t, func() bool { return w.hub.Size(w.chat.ID) == 1 }, waitFor, 5*time.Millisecond)

	for i := 0; i < 5; i++ {
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"text":"still here"}`)))
	}
	assert.Equal(t, 1, w.hub.Size(w.chat.ID))
	require.Eventually(t, func() bool { return w.store.Messages().Count(w.chat.ID) == 5 }, waitFor, 5*time.Millisecond)
}
