package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitStatus(t *testing.T, c *Client, want func(Status) bool) Status {
	t.Helper()
	for {
		select {
		case s := <-c.Status():
			if want(s) {
				return s
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for status")
		}
	}
}

func TestConnectDeliversFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"onlineUsers","data":{"userIds":[1]}}`)))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New(wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	status := waitStatus(t, c, func(s Status) bool { return s.Connected })
	assert.False(t, status.Resumed)

	select {
	case frame := <-c.Frames():
		assert.Contains(t, string(frame), "onlineUsers")
	case <-time.After(5 * time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestSendReachesServer(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_, frame, err := conn.ReadMessage()
		if err == nil {
			received <- frame
		}
	}))
	defer srv.Close()

	c := New(wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	require.NoError(t, c.Send([]byte(`{"event":"join","data":{"userId":1}}`)))

	select {
	case frame := <-received:
		assert.Contains(t, string(frame), "join")
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestConnectFailsFast(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws")
	require.Error(t, c.Connect(context.Background()))
}

func TestSendAfterCloseFails(t *testing.T) {
	c := New("ws://localhost/ws")
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Send([]byte("x")), ErrClosed)
}

func TestReconnectAfterDrop(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		if accepts.Add(1) == 1 {
			// Drop the first connection straight away to force a reconnect.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New(wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	waitStatus(t, c, func(s Status) bool { return s.Connected && !s.Resumed })
	waitStatus(t, c, func(s Status) bool { return !s.Connected })
	resumed := waitStatus(t, c, func(s Status) bool { return s.Connected })
	assert.True(t, resumed.Resumed)
	assert.GreaterOrEqual(t, accepts.Load(), int32(2))
}

func TestRepeatedReconnectsLeaveNoGoroutines(t *testing.T) {
	const drops = 3
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		if accepts.Add(1) <= drops {
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	base := runtime.NumGoroutine()

	c := New(wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))

	waitStatus(t, c, func(s Status) bool { return s.Connected && !s.Resumed })
	for i := 0; i < drops; i++ {
		waitStatus(t, c, func(s Status) bool { return !s.Connected })
		waitStatus(t, c, func(s Status) bool { return s.Connected && s.Resumed })
	}
	require.NoError(t, c.Close())

	// Only the read loop runs per transport; nothing from the retry cycles
	// may survive past Close.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+1
	}, 5*time.Second, 50*time.Millisecond)
}
