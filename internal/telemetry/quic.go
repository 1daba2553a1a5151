package telemetry

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/galaxy/internal/core/observability/log"
)

// ALPN is the application protocol negotiated by telemetry QUIC connections.
const ALPN = "galaxy-telemetry"

// QUICServer opens one stream to every connecting client and writes each
// frame to it length prefixed (see WriteFrame).
type QUICServer struct {
	mu       sync.Mutex
	clients  map[*quic.Conn]*quic.Stream
	listener *quic.Listener
	closed   atomic.Bool
	logger   log.Log
}

func NewQUICServer(logger log.Log) *QUICServer {
	if logger == nil {
		logger = log.Provide()
	}
	return &QUICServer{
		clients: make(map[*quic.Conn]*quic.Stream),
		logger:  logger.With(log.String("transport", "quic")),
	}
}

// Start listens on addr with a self-signed certificate and accepts clients
// until Stop is called or ctx is done.
func (s *QUICServer) Start(ctx context.Context, addr string) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	tlsConfig, err := generateTLSConfig()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	ln, err := quic.ListenAddr(addr, tlsConfig, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 15 * time.Second,
	})
	if err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "listen %s", addr)
	}
	s.listener = ln
	s.mu.Unlock()

	go s.acceptLoop(ctx, ln)
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	s.logger.Info("QUIC telemetry listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the listening address, or nil before Start.
func (s *QUICServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *QUICServer) acceptLoop(ctx context.Context, ln *quic.Listener) {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if !s.closed.Load() && ctx.Err() == nil {
				s.logger.Error("Failed to accept QUIC connection", log.Error(err))
			}
			return
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *QUICServer) handleConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		s.logger.Warn("Failed to open telemetry stream", log.String("remote_addr", remote), log.Error(err))
		_ = conn.CloseWithError(1, "open stream failed")
		return
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		_ = conn.CloseWithError(0, "server shutting down")
		return
	}
	s.clients[conn] = stream
	s.mu.Unlock()
	s.logger.Debug("QUIC client connected", log.String("remote_addr", remote))

	<-conn.Context().Done()

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	s.logger.Debug("QUIC client disconnected", log.String("remote_addr", remote))
}

// Broadcast writes payload to every client stream. Clients whose stream
// fails are disconnected.
func (s *QUICServer) Broadcast(_ context.Context, payload []byte) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		return err
	}
	wire := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, stream := range s.clients {
		_ = stream.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := stream.Write(wire); err != nil {
			s.logger.Debug("Dropping QUIC client",
				log.String("remote_addr", conn.RemoteAddr().String()),
				log.Error(err))
			_ = conn.CloseWithError(1, "write failed")
			delete(s.clients, conn)
		}
	}
	return nil
}

func (s *QUICServer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *QUICServer) Stop(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	ln := s.listener
	for conn := range s.clients {
		_ = conn.CloseWithError(0, "server shutting down")
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	s.logger.Info("QUIC telemetry stopped")
	if ln == nil {
		return nil
	}
	return ln.Close()
}

// generateTLSConfig creates a self-signed certificate for localhost.
func generateTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"Galaxy"}},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:     []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "create certificate")
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "load key pair")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPN},
		MinVersion:   tls.VersionTLS13,
	}, nil
}
