package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ayusman/handtrack/internal/pipeline"
)

const (
	writeWait = time.Second

	// sendBuffer is how many snapshots a client may fall behind before it is dropped.
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// wsClient is one WebSocket connection and its queue of pending messages.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// LandmarksHandler broadcasts every pipeline snapshot to WebSocket clients
// as one JSON text message.
type LandmarksHandler struct {
	logger      *log.Logger
	unsubscribe func()

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// NewLandmarksHandler creates a handler subscribed to source.
func NewLandmarksHandler(source FrameSource, logger *log.Logger) *LandmarksHandler {
	h := &LandmarksHandler{
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
	h.unsubscribe = source.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer h.remove(c)
	go h.writeLoop(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writeLoop sends queued messages until the queue is closed or a write fails.
func (h *LandmarksHandler) writeLoop(c *wsClient) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", "err", err)
			h.remove(c)
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the feed and disconnects every client.
func (h *LandmarksHandler) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *LandmarksHandler) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop closes the client's queue, which ends its writer and connection.
// The caller must hold mu.
func (h *LandmarksHandler) drop(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// broadcast runs on the pipeline goroutine and never blocks on a client.
// A client whose queue is full is dropped.
func (h *LandmarksHandler) broadcast(snap pipeline.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("encoding snapshot", "err", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("dropping slow websocket client")
			h.drop(c)
		}
	}
}
