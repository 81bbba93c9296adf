package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

const subscriberBuffer = 16

var (
	connectedFrame = []byte(`{"type":"connected"}`)
	pingFrame      = []byte(`{"type":"ping"}`)
)

// Hub fans encoded frames out to in-process stream subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewHub constructs a Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan []byte]struct{})}
}

// Subscribe registers a subscriber and returns its channel plus an
// unsubscribe function that must be called on disconnect.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Broadcast sends frame to every subscriber and returns how many received it.
// Slow subscribers are skipped.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers {
		select {
		case ch <- frame:
			delivered++
		default:
		}
	}
	return delivered
}

// Publish encodes n as a push frame and broadcasts it.
func (h *Hub) Publish(n domain.Notification) (int, error) {
	frame, err := encodeFrame(n)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(frame), nil
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// pushFrame is the wire shape of a notification push. It has no readAt.
type pushFrame struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	RelatedEntityID   string    `json:"relatedEntityId,omitempty"`
	RelatedEntityType string    `json:"relatedEntityType,omitempty"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"createdAt"`
}

func encodeFrame(n domain.Notification) ([]byte, error) {
	return json.Marshal(pushFrame{
		ID:                n.ID,
		Type:              string(n.Kind),
		Title:             n.Title,
		Message:           n.Body,
		RelatedEntityID:   n.Related.ID,
		RelatedEntityType: string(n.Related.Type),
		CreatedAt:         n.CreatedAt,
	})
}
