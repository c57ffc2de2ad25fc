package events

import (
	"log"
	"sync"
)

// LoggingObserver logs every event.
type LoggingObserver struct {
	name    string
	verbose bool
}

// NewLoggingObserver creates an observer that logs events, including payloads
// when verbose is set.
func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
	}
}

// OnEvent logs the event.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		log.Printf("[%s] Event: %s, Data: %+v", o.name, event.Type, event.Data)
	} else {
		log.Printf("[%s] Event: %s", o.name, event.Type)
	}
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle accepts all events.
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	Name  string
	Types []string
	Fn    func(Event) error
}

// OnEvent calls Fn.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.Fn(event)
}

// GetName returns the observer's name.
func (o *FuncObserver) GetName() string {
	return o.Name
}

// ShouldHandle accepts the listed types, or everything when Types is empty.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, t := range o.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

// Recorder collects events in memory. Tests and the CLI use it to inspect what
// an operation emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// OnEvent stores the event.
func (r *Recorder) OnEvent(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// GetName returns the observer's name.
func (r *Recorder) GetName() string {
	return "Recorder"
}

// ShouldHandle accepts all events.
func (r *Recorder) ShouldHandle(eventType string) bool {
	return true
}

// Events returns the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
