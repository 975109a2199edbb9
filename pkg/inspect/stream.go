package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vroute/pkg/route"
)

// writeTimeout bounds a single WebSocket write.
const writeTimeout = 5 * time.Second

// MessageType is the type of a stream message.
type MessageType string

const (
	// MessageCurrent carries the current route, sent on connect.
	MessageCurrent MessageType = "current"

	// MessageNavigated carries a newly committed route.
	MessageNavigated MessageType = "navigated"
)

// Message is sent to stream clients.
type Message struct {
	Type  MessageType  `json:"type"`
	Route ResolvedView `json:"route"`
}

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(data)
}

// write requires c.mu.
func (c *client) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Stream fans committed routes out to WebSocket clients.
type Stream struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStream creates a stream with no clients.
func NewStream(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Stream {
	return &Stream{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Handle upgrades the request and registers the connection. The route
// returned by current is sent first. The client is registered before
// current is read, and Publish waits for that first write, so no committed
// route is missed.
func (s *Stream) Handle(w http.ResponseWriter, req *http.Request, current func() *route.ResolvedRoute) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	c.mu.Lock()
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	data, err := encode(MessageCurrent, current())
	if err == nil {
		err = c.write(data)
	}
	c.mu.Unlock()
	if err != nil {
		s.logger.Debug("stream initial send failed", "error", err)
		s.remove(c)
		return
	}
	s.logger.Debug("stream client connected", "remote", req.RemoteAddr)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.remove(c)
	s.logger.Debug("stream client disconnected", "remote", req.RemoteAddr)
}

// Publish sends a navigated message to every client.
func (s *Stream) Publish(res *route.ResolvedRoute) {
	data, err := encode(MessageNavigated, res)
	if err != nil {
		s.logger.Error("stream encode failed", "error", err)
		return
	}

	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(data); err != nil {
			s.remove(c)
		}
	}
}

func (s *Stream) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

// ClientCount returns the number of connected clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes every client connection.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
}

func encode(t MessageType, res *route.ResolvedRoute) ([]byte, error) {
	return json.Marshal(Message{Type: t, Route: NewResolvedView(res)})
}
