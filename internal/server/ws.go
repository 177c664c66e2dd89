package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/game"
)

// DefaultEventInterval is how often round snapshots are pushed.
const DefaultEventInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SnapshotSource supplies round snapshots.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (game.Snapshot, error)
}

// EventsHandler pushes round snapshots to WebSocket clients. A snapshot is
// sent when it changes, and once to every client that just connected.
type EventsHandler struct {
	source   SnapshotSource
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool // true until the client got its first snapshot

	stop chan struct{}
	once sync.Once
}

// NewEventsHandler creates an EventsHandler and starts its broadcaster.
func NewEventsHandler(source SnapshotSource, interval time.Duration) *EventsHandler {
	if interval <= 0 {
		interval = DefaultEventInterval
	}
	h := &EventsHandler{
		source:   source,
		interval: interval,
		clients:  make(map[*websocket.Conn]bool),
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast is the only writer to client connections.
func (h *EventsHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.interval)
		snap, err := h.source.Snapshot(ctx)
		cancel()
		if err != nil {
			continue
		}

		msg, err := json.Marshal(snap)
		if err != nil {
			log.Error().Err(err).Msg("encode snapshot")
			continue
		}
		changed := !bytes.Equal(msg, last)
		last = msg

		h.mu.Lock()
		for conn, fresh := range h.clients {
			if !changed && !fresh {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				conn.Close()
				delete(h.clients, conn)
				continue
			}
			h.clients[conn] = false
		}
		h.mu.Unlock()
	}
}

// Close stops the broadcaster and closes every client connection.
func (h *EventsHandler) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
		}
		h.mu.Unlock()
	})
}
