package receipts

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// StreamEvent is one frame on the notification stream.
type StreamEvent struct {
	// Type is "change" or "move".
	Type string `json:"type"`
	// UserID, FromEventID and ToEventID are set on move frames.
	UserID      string `json:"user_id,omitempty"`
	FromEventID string `json:"from_event_id,omitempty"`
	ToEventID   string `json:"to_event_id,omitempty"`
}

// Hub fans engine notifications out to websocket subscribers. Slow
// subscribers never block a reconciliation call: frames are dropped when a
// subscriber's queue is full.
type Hub struct {
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	buffer  int
	logger  *zap.Logger
}

type streamClient struct {
	send chan []byte
}

// NewHub creates a hub with the given per-subscriber queue length.
func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		clients: make(map[*streamClient]struct{}),
		buffer:  buffer,
		logger:  logger,
	}
}

// NotifyChange implements the engine's change sink.
func (h *Hub) NotifyChange() {
	h.broadcast(StreamEvent{Type: "change"})
}

// NotifyMove implements the engine's move sink.
func (h *Hub) NotifyMove(userID, fromEventID, toEventID string) {
	h.broadcast(StreamEvent{
		Type:        "move",
		UserID:      userID,
		FromEventID: fromEventID,
		ToEventID:   toEventID,
	})
}

func (h *Hub) broadcast(ev StreamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encoding stream event", zap.Error(err))
		return
	}

	h.mu.RLock()
	snapshot := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		select {
		case c.send <- data:
		default:
			// Queue full, drop the frame. Subscribers re-read state on the
			// next change anyway.
		}
	}
}

// Serve pumps notifications to one websocket subscriber until it
// disconnects. It blocks for the lifetime of the connection.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &streamClient{send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	// The channel is never closed: a broadcast may still hold a snapshot
	// reference after removal, and sending on a closed channel would panic.
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Subscribers don't send anything meaningful; the read loop exists
		// to detect disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data := <-c.send:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
