package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

const (
	FrameSnapshot     = "snapshot"
	FrameNotification = "notification"

	writeWait      = 5 * time.Second
	clientSendSize = 16
)

// Frame is one websocket message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots and notifications out to websocket viewers. A viewer
// that cannot keep up loses frames; it never slows the tick.
type Hub struct {
	upgrader websocket.Upgrader
	log      log.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	latest  []byte
	closed  bool
}

func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Single local viewer; no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// OnSnapshot implements publisher.SnapshotSubscriber.
func (h *Hub) OnSnapshot(_ context.Context, snap model.Snapshot) {
	data, err := json.Marshal(Frame{Type: FrameSnapshot, Data: snap})
	if err != nil {
		h.log.Error(err, "Failed to encode snapshot frame", "seq", snap.Seq())
		return
	}
	h.broadcast(data, true)
}

// Notify implements selection.Notifier.
func (h *Hub) Notify(_ context.Context, n model.Notification) error {
	data, err := json.Marshal(Frame{Type: FrameNotification, Data: n})
	if err != nil {
		return err
	}
	h.broadcast(data, false)
	return nil
}

func (h *Hub) broadcast(data []byte, snapshot bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if snapshot {
		h.latest = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Debug("Dropping frame for slow viewer", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// ServeHTTP upgrades the request and streams frames, starting with the latest
// snapshot.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(err, "Websocket upgrade failed")
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, clientSendSize)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()
	h.log.Info("Viewer connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards inbound messages and returns when the viewer goes away.
func (h *Hub) readLoop(c *streamClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *streamClient) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("Websocket write failed", "error", err)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Info("Viewer disconnected", "remote", c.conn.RemoteAddr().String())
	}
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
