package telemetry

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/core/observability/log"
)

const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketServer pushes every frame to all connected clients as a text
// message on /ws. Messages from clients are read and discarded.
type WebSocketServer struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	server  *http.Server
	addr    net.Addr
	closed  atomic.Bool
	logger  log.Log
}

func NewWebSocketServer(logger log.Log) *WebSocketServer {
	if logger == nil {
		logger = log.Provide()
	}
	return &WebSocketServer{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger.With(log.String("transport", "websocket")),
	}
}

// Handler returns the upgrade handler, for mounting on an existing mux.
func (s *WebSocketServer) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

// Start listens on addr and serves /ws until Stop is called or ctx is done.
func (s *WebSocketServer) Start(ctx context.Context, addr string) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "listen %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server stopped", log.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(shutdown)
	}()

	s.logger.Info("WebSocket telemetry listening", log.String("addr", s.addr.String()))
	return nil
}

// Addr is the listening address, or nil before Start.
func (s *WebSocketServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *WebSocketServer) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	server := s.server
	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	s.logger.Info("WebSocket telemetry stopped")
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Broadcast sends payload to every client. Clients that fail to receive it
// within the write timeout are dropped.
func (s *WebSocketServer) Broadcast(_ context.Context, payload []byte) error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("Dropping WebSocket client",
				log.String("remote_addr", conn.RemoteAddr().String()),
				log.Error(err))
			_ = conn.Close()
			delete(s.clients, conn)
		}
	}
	return nil
}

func (s *WebSocketServer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", log.Error(err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("WebSocket client connected", log.String("remote_addr", conn.RemoteAddr().String()))

	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.logger.Debug("WebSocket client disconnected", log.String("remote_addr", conn.RemoteAddr().String()))
}
