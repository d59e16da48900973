package source

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// WebSocketConfig holds WebSocket source configuration
type WebSocketConfig struct {
	Addr       string
	Path       string
	BufferSize int
}

// WebSocketSource accepts WebSocket connections and buffers their JSON
// messages for the pull loop. Each connected client gets a reader
// goroutine feeding the shared bounded channel.
type WebSocketSource struct {
	addr     string
	path     string
	server   *http.Server
	upgrader websocket.Upgrader
	events   chan *stream.Event
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewWebSocketSource creates and starts the listener
func NewWebSocketSource(config WebSocketConfig, logger *zap.Logger) *WebSocketSource {
	if config.Path == "" {
		config.Path = "/events"
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &WebSocketSource{
		addr: config.Addr,
		path: config.Path,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		events:  make(chan *stream.Event, config.BufferSize),
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleConnection)
	s.server = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		s.logger.Info("WebSocket source listening",
			zap.String("addr", s.addr),
			zap.String("path", s.path))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("WebSocket server error", zap.Error(err))
		}
	}()

	return s
}

func (s *WebSocketSource) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade error", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	go s.readLoop(conn)
}

func (s *WebSocketSource) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		event, err := decodeJSON(data)
		if err != nil {
			s.logger.Warn("Skipping undecodable WebSocket message", zap.Error(err))
			continue
		}

		select {
		case s.events <- event:
		default:
			// Buffer full: shed at the edge rather than block the client reader
			s.logger.Warn("WebSocket buffer full, dropping event")
		}
	}
}

// Read drains one buffered event without blocking
func (s *WebSocketSource) Read() (*stream.Event, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	select {
	case event := <-s.events:
		return event, nil
	default:
		if closed {
			return nil, stream.ErrEndOfStream
		}
		return nil, nil
	}
}

// Poll blocks up to timeout for the next event
func (s *WebSocketSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	return stream.PollWithRead(ctx, timeout, s.Read)
}

// Name identifies the source
func (s *WebSocketSource) Name() string {
	return "websocket:" + s.addr + s.path
}

// Close stops the listener and disconnects all clients
func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	s.closed = true
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()

	return s.server.Close()
}
