package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/alphastack/backend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHub pushes enrichment run summaries to connected dashboards.
// Slow clients are dropped, not buffered indefinitely.
type StreamHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan interface{}
	logger  *logger.Logger
}

func NewStreamHub(log *logger.Logger) *StreamHub {
	return &StreamHub{
		clients: make(map[*websocket.Conn]chan interface{}),
		logger:  log.WithComponent("stream"),
	}
}

// Handle upgrades the request and serves the event stream
// GET /api/stream
func (h *StreamHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	send := make(chan interface{}, 16)

	h.mu.Lock()
	h.clients[conn] = send
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("Stream client connected")

	go h.writeLoop(conn, send)
	h.readLoop(conn)
}

// writeLoop drains the send channel until the client goes away
func (h *StreamHub) writeLoop(conn *websocket.Conn, send chan interface{}) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects
func (h *StreamHub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast sends an event to every connected client. A client whose buffer
// is full is dropped rather than blocking the caller.
func (h *StreamHub) Broadcast(event interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- event:
		default:
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

// Close disconnects every client
func (h *StreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
		conn.Close()
	}
}

func (h *StreamHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	conn.Close()
}
