// Package events distributes economy domain events to registered observers.
package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// Event is a domain event delivered to observers.
type Event struct {
	// Type is the event type, e.g. "booster:granted" or "milestone:reached".
	Type string

	// Data is the typed payload. Use GetTypedData to extract it.
	Data any

	// OccurredAt is when the change was committed.
	OccurredAt time.Time

	Context context.Context
}

// Observer receives dispatched events.
type Observer interface {
	// OnEvent handles one event. A returned error is logged and does not stop dispatch.
	OnEvent(event Event) error

	// GetName identifies the observer in logs.
	GetName() string

	// ShouldHandle filters which event types reach OnEvent.
	ShouldHandle(eventType string) bool
}

// Publisher is what producers of events depend on.
type Publisher interface {
	Dispatch(event Event)
}

// EventDispatcher fans events out to observers. Safe for concurrent use.
type EventDispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register adds an observer.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[EventDispatcher] Registered observer: %s", observer.GetName())
}

// Unregister removes an observer. Unknown observers are ignored.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			log.Printf("[EventDispatcher] Unregistered observer: %s", observer.GetName())
			return
		}
	}
}

func (d *EventDispatcher) snapshot() []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Observer, len(d.observers))
	copy(out, d.observers)
	return out
}

// Dispatch notifies observers sequentially in registration order.
func (d *EventDispatcher) Dispatch(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		notify(observer, event)
	}
}

// DispatchAsync notifies each observer on its own goroutine. Use Wait to block
// until all in-flight deliveries finish.
func (d *EventDispatcher) DispatchAsync(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		d.wg.Add(1)
		go func(obs Observer) {
			defer d.wg.Done()
			notify(obs, event)
		}(observer)
	}
}

// Wait blocks until asynchronous deliveries complete.
func (d *EventDispatcher) Wait() {
	d.wg.Wait()
}

func notify(obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventDispatcher] Observer %s panicked on %s: %v", obs.GetName(), event.Type, r)
		}
	}()
	if err := obs.OnEvent(event); err != nil {
		log.Printf("[EventDispatcher] Observer %s failed to handle event %s: %v",
			obs.GetName(), event.Type, err)
	}
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all observers.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = nil
}

// NewTypedEvent builds an event carrying data.
func NewTypedEvent[T any](ctx context.Context, eventType string, data T, at time.Time) Event {
	if ctx == nil {
		ctx = context.Background()
	}
	return Event{
		Type:       eventType,
		Data:       data,
		OccurredAt: at,
		Context:    ctx,
	}
}

// GetTypedData extracts the payload of an event. It returns false when the payload
// is missing or of another type.
func GetTypedData[T any](event Event) (T, bool) {
	var zero T
	if event.Data == nil {
		return zero, false
	}
	typed, ok := event.Data.(T)
	return typed, ok
}
