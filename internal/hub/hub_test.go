package hub

import (
	"encoding/json"
	"testing"
	"time"

	"dinequeue/internal/models"
)

func TestPublishReachesAllClients(t *testing.T) {
	h := New()
	first := &Client{ID: "c1", Send: make(chan []byte, 4)}
	second := &Client{ID: "c2", Send: make(chan []byte, 4)}
	h.Register(first)
	h.Register(second)

	h.Publish(models.Snapshot{TotalToday: 9}, time.Now().UTC())

	for _, client := range []*Client{first, second} {
		select {
		case payload := <-client.Send:
			var envelope struct {
				Type    string `json:"type"`
				Payload struct {
					TotalToday int `json:"total_today"`
				} `json:"payload"`
			}
			if err := json.Unmarshal(payload, &envelope); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if envelope.Type != "snapshot" {
				t.Fatalf("expected snapshot frame, got %s", envelope.Type)
			}
			if envelope.Payload.TotalToday != 9 {
				t.Fatalf("expected total 9, got %d", envelope.Payload.TotalToday)
			}
		default:
			t.Fatalf("client %s received no frame", client.ID)
		}
	}
}

func TestPublishDropsForSlowClient(t *testing.T) {
	h := New()
	slow := &Client{ID: "slow", Send: make(chan []byte, 1)}
	h.Register(slow)

	h.Publish(models.Snapshot{TotalToday: 1}, time.Now().UTC())
	// The buffer is full now; this frame must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		h.Publish(models.Snapshot{TotalToday: 2}, time.Now().UTC())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow client")
	}

	if len(slow.Send) != 1 {
		t.Fatalf("expected 1 buffered frame, got %d", len(slow.Send))
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := New()
	client := &Client{ID: "c1", Send: make(chan []byte, 1)}
	h.Register(client)
	if h.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", h.ClientCount())
	}

	h.Unregister(client)
	if h.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.ClientCount())
	}
	if _, open := <-client.Send; open {
		t.Fatalf("expected closed send channel")
	}

	// A second unregister of the same client is a no-op.
	h.Unregister(client)
}

func TestSendToTargetsSingleClient(t *testing.T) {
	h := New()
	target := &Client{ID: "c1", Send: make(chan []byte, 1)}
	other := &Client{ID: "c2", Send: make(chan []byte, 1)}
	h.Register(target)
	h.Register(other)

	h.SendTo(target, models.Snapshot{TotalToday: 4}, time.Now().UTC())

	if len(target.Send) != 1 {
		t.Fatalf("expected frame for target client")
	}
	if len(other.Send) != 0 {
		t.Fatalf("expected no frame for other client")
	}
}
