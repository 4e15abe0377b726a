package devtools

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/vango-dev/statekit/pkg/inject"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeWait bounds a single websocket write so a stalled client cannot block
// the registry caller that published the event.
const writeWait = 2 * time.Second

// EventMessage is a registry event as sent to devtools clients.
type EventMessage struct {
	ID    string    `json:"id"`
	Event string    `json:"event"`
	Key   string    `json:"key,omitempty"`
	Tag   string    `json:"tag,omitempty"`
	Time  time.Time `json:"time"`
}

// HubOptions configures a Hub.
type HubOptions struct {
	// BufferSize is the number of recent events kept for replay (default: 256).
	BufferSize int

	// AllowOrigins lists origins allowed to connect. "*" allows any origin.
	// Empty allows same-origin requests only.
	AllowOrigins []string

	// Logger receives connection errors. Default: slog.Default().
	Logger *slog.Logger
}

// Hub fans registry events out to websocket clients and keeps a ring
// buffer of recent events.
type Hub struct {
	// writeMu serializes publishing and backlog replay so every client sees
	// each event exactly once and in order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	recent  []EventMessage
	next    int
	full    bool

	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

// NewHub creates a hub.
func NewHub(opts HubOptions) *Hub {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		recent:  make([]EventMessage, opts.BufferSize),
		logger:  opts.Logger,
		now:     time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(opts.AllowOrigins) > 0 {
		h.upgrader.CheckOrigin = allowOrigins(opts.AllowOrigins)
	}
	return h
}

func allowOrigins(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// Hook returns a registry hook that publishes every event.
func (h *Hub) Hook() inject.Hook {
	return h.Publish
}

// Publish records an event and sends it to all connected clients.
func (h *Hub) Publish(event inject.Event, key inject.Key) {
	msg := EventMessage{
		ID:    newEventID(),
		Event: event.String(),
		Tag:   key.Tag,
		Time:  h.now(),
	}
	if key.Type != nil {
		msg.Key = key.Type.String()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("devtools event encode failed", "error", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	h.recent[h.next] = msg
	h.next = (h.next + 1) % len(h.recent)
	if h.next == 0 {
		h.full = true
	}
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if err := h.write(client, data); err != nil {
			h.drop(client, err)
		}
	}
}

// Recent returns the buffered events, oldest first.
func (h *Hub) Recent() []EventMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.recentLocked()
}

func (h *Hub) recentLocked() []EventMessage {
	if !h.full {
		out := make([]EventMessage, h.next)
		copy(out, h.recent[:h.next])
		return out
	}
	out := make([]EventMessage, 0, len(h.recent))
	out = append(out, h.recent[h.next:]...)
	out = append(out, h.recent[:h.next]...)
	return out
}

// HandleWebSocket upgrades the request, replays the buffered events and
// then streams new ones until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		h.logger.Warn("devtools websocket upgrade failed", "remote", req.RemoteAddr, "error", err)
		return
	}

	h.writeMu.Lock()
	h.mu.Lock()
	h.clients[conn] = true
	backlog := h.recentLocked()
	h.mu.Unlock()

	for _, msg := range backlog {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		if err := h.write(conn, data); err != nil {
			h.writeMu.Unlock()
			h.drop(conn, err)
			return
		}
	}
	h.writeMu.Unlock()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) drop(conn *websocket.Conn, err error) {
	h.logger.Debug("devtools client dropped", "remote", conn.RemoteAddr().String(), "error", err)
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
