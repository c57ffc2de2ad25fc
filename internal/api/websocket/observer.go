package websocket

import (
	"log"

	"github.com/ramonehamilton/booster-companion/internal/clock"
	"github.com/ramonehamilton/booster-companion/internal/events"
)

// WebSocketObserver forwards dispatcher events to WebSocket clients.
type WebSocketObserver struct {
	name  string
	hub   *Hub
	types map[string]bool
}

// NewWebSocketObserver creates an observer that forwards the given event types,
// or every event when none are given.
func NewWebSocketObserver(hub *Hub, eventTypes ...string) *WebSocketObserver {
	o := &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
	if len(eventTypes) > 0 {
		o.types = make(map[string]bool, len(eventTypes))
		for _, t := range eventTypes {
			o.types[t] = true
		}
	}
	return o
}

// OnEvent broadcasts the event payload.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.Printf("[%s] Cannot emit event %s: hub is nil", o.name, event.Type)
		return nil
	}

	o.hub.BroadcastEvent(Event{
		Type:      event.Type,
		Data:      event.Data,
		Timestamp: clock.ToUnixSeconds(event.OccurredAt),
	})
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle reports whether the event type is forwarded.
func (o *WebSocketObserver) ShouldHandle(eventType string) bool {
	if o.types == nil {
		return true
	}
	return o.types[eventType]
}

var _ events.Observer = (*WebSocketObserver)(nil)
