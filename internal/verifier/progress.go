package verifier

import (
	"sync"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

// eventBuffer is the per-subscriber channel depth. A slow consumer loses
// intermediate events rather than stalling the run.
const eventBuffer = 64

// Publisher is the orchestrator's one-way progress boundary. The transport
// that relays events to a remote observer lives outside the engine.
type Publisher interface {
	Publish(event model.ProgressEvent)
}

// NopPublisher drops every event. Used when the caller supplied no run id.
type NopPublisher struct{}

func (NopPublisher) Publish(model.ProgressEvent) {}

// ProgressHub fans progress events out to subscribers keyed by run id.
type ProgressHub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan model.ProgressEvent
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string][]chan model.ProgressEvent),
	}
}

// Subscribe returns a channel receiving events for the run. The caller must
// Unsubscribe when done to prevent leaks.
func (h *ProgressHub) Subscribe(runID string) chan model.ProgressEvent {
	ch := make(chan model.ProgressEvent, eventBuffer)
	h.mu.Lock()
	h.subscribers[runID] = append(h.subscribers[runID], ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *ProgressHub) Unsubscribe(runID string, ch chan model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[runID]
	for i, sub := range subs {
		if sub == ch {
			h.subscribers[runID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.subscribers[runID]) == 0 {
		delete(h.subscribers, runID)
	}
}

// Publish delivers the event to every subscriber of its run. Non-blocking:
// a full subscriber channel skips the event.
func (h *ProgressHub) Publish(event model.ProgressEvent) {
	if event.RunID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[event.RunID] {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; it will catch up on the next event.
		}
	}
}
