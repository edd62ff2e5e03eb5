package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"dinequeue/internal/models"
)

// Client is one connected realtime session. Send is buffered; a client that
// cannot keep up loses intermediate frames, never the connection.
type Client struct {
	ID   string
	Send chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type snapshotEnvelope struct {
	Type      string          `json:"type"`
	Payload   models.Snapshot `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish fans a full snapshot out to every client. Each frame carries the
// whole floor state, so dropping a frame for a slow client is harmless: the
// next frame supersedes it.
func (h *Hub) Publish(snapshot models.Snapshot, at time.Time) {
	payload, err := json.Marshal(snapshotEnvelope{
		Type:      "snapshot",
		Payload:   snapshot,
		CreatedAt: at,
	})
	if err != nil {
		log.Printf("marshal snapshot: %v", err)
		return
	}
	h.broadcast(payload)
}

// SendTo delivers a snapshot to a single client, used for the greeting frame
// on connect.
func (h *Hub) SendTo(client *Client, snapshot models.Snapshot, at time.Time) {
	payload, err := json.Marshal(snapshotEnvelope{
		Type:      "snapshot",
		Payload:   snapshot,
		CreatedAt: at,
	})
	if err != nil {
		log.Printf("marshal snapshot: %v", err)
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop snapshot for client %s", client.ID)
		}
	}
}
