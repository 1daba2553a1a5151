package telemetry

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/galaxy/internal/core/observability/log"
)

func TestQUICServer_Broadcast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := NewQUICServer(log.NewNop())
	require.NoError(t, server.Start(ctx, "127.0.0.1:0"))
	defer func() { _ = server.Stop(context.Background()) }()
	require.NotNil(t, server.Addr())

	conn, err := quic.DialAddr(ctx, server.Addr().String(), &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{ALPN},
	}, nil)
	require.NoError(t, err)
	defer func() { _ = conn.CloseWithError(0, "") }()

	require.Eventually(t, func() bool { return server.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	payload, err := testFrame().Serialize()
	require.NoError(t, err)
	require.NoError(t, server.Broadcast(ctx, payload))
	require.NoError(t, server.Broadcast(ctx, payload))

	stream, err := conn.AcceptStream(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f, err := ReadFrame(stream)
		require.NoError(t, err)
		assert.Equal(t, testFrame(), f)
	}

	require.NoError(t, server.Stop(context.Background()))
	assert.Zero(t, server.Clients())
	assert.ErrorIs(t, server.Broadcast(ctx, payload), ErrServerClosed)
	assert.ErrorIs(t, server.Start(ctx, "127.0.0.1:0"), ErrServerClosed)
}

func TestGenerateTLSConfig(t *testing.T) {
	cfg, err := generateTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{ALPN}, cfg.NextProtos)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.Len(t, cfg.Certificates, 1)
}
