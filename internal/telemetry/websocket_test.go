package telemetry

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/galaxy/internal/core/observability/log"
)

func TestWebSocketServer_Broadcast(t *testing.T) {
	server := NewWebSocketServer(log.NewNop())
	s := httptest.NewServer(server.Handler())
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return server.Clients() == 1 }, time.Second, 5*time.Millisecond)

	payload, err := testFrame().Serialize()
	require.NoError(t, err)
	require.NoError(t, server.Broadcast(context.Background(), payload))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)

	var f Frame
	require.NoError(t, f.Deserialize(msg))
	assert.Equal(t, *testFrame(), f)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return server.Clients() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, server.Stop(context.Background()))
	assert.ErrorIs(t, server.Broadcast(context.Background(), payload), ErrServerClosed)
}

func TestWebSocketServer_StartStop(t *testing.T) {
	server := NewWebSocketServer(log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, server.Start(ctx, "127.0.0.1:0"))
	require.NotNil(t, server.Addr())
	assert.ErrorIs(t, server.Start(ctx, "127.0.0.1:0"), ErrServerAlreadyRunning)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return server.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, server.Stop(context.Background()))
	assert.Zero(t, server.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
