// Package realtime tells connected clients when to pull their conversation
// list, threads and unread badge again.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/telbozor/api/internal/conversation"
)

// FrameRecompute is the only frame type the hub sends.
const FrameRecompute = "recompute"

// Frame is the JSON message written to clients.
type Frame struct {
	Type string `json:"type"`
	conversation.Directive
}

// Hub tracks live websocket connections per viewer. A viewer may hold several
// connections, one per device or tab.
type Hub struct {
	upgrader   websocket.Upgrader
	coalescer  *conversation.Coalescer
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates a hub whose directives are debounced over window.
// allowedOrigins follows the CORS setting; "*" accepts every origin.
func NewHub(window time.Duration, allowedOrigins []string) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	h.coalescer = conversation.NewCoalescer(window, h.deliver)
	return h
}

// Run serves registrations until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.viewerID] == nil {
				h.clients[c.viewerID] = make(map[*client]struct{})
			}
			h.clients[c.viewerID][c] = struct{}{}
			h.mu.Unlock()
			slog.Debug("realtime client registered", "viewer_id", c.viewerID)

		case c := <-h.unregister:
			h.remove(c)

		case <-ctx.Done():
			h.coalescer.Close()
			h.mu.Lock()
			for viewerID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, viewerID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish turns a committed message change into recompute directives for each
// participant that is currently connected.
func (h *Hub) Publish(ev conversation.ChangeEvent) {
	for _, viewerID := range conversation.Participants(ev) {
		if h.Connections(viewerID) == 0 {
			continue
		}
		if d, ok := conversation.Decide(ev, viewerID); ok {
			h.coalescer.Submit(d)
		}
	}
}

// Connections returns the number of live connections of viewerID.
func (h *Hub) Connections(viewerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[viewerID])
}

// ServeWS upgrades the request and attaches the connection to viewerID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, viewerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "viewer_id", viewerID, "err", err)
		return
	}
	c := &client{hub: h, viewerID: viewerID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) deliver(d conversation.Directive) {
	payload, err := json.Marshal(Frame{Type: FrameRecompute, Directive: d})
	if err != nil {
		slog.Error("marshal realtime frame", "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[d.ViewerID] {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop the connection, the client reconnects and pulls.
			go h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.viewerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.viewerID)
	}
	slog.Debug("realtime client unregistered", "viewer_id", c.viewerID)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
