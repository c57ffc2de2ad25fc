package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ramonehamilton/booster-companion/internal/events"
)

func TestWebSocketObserver_ShouldHandle(t *testing.T) {
	all := NewWebSocketObserver(NewHub(nil))
	if !all.ShouldHandle(events.TypeBoosterOpened) || !all.ShouldHandle("anything") {
		t.Error("Observer without filter should forward everything")
	}

	filtered := NewWebSocketObserver(NewHub(nil), events.TypeMilestoneReached)
	if !filtered.ShouldHandle(events.TypeMilestoneReached) {
		t.Error("Expected listed type to be forwarded")
	}
	if filtered.ShouldHandle(events.TypeCurrencyChanged) {
		t.Error("Expected unlisted type to be skipped")
	}
	if filtered.GetName() != "WebSocketObserver" {
		t.Errorf("Unexpected name %q", filtered.GetName())
	}
}

func TestWebSocketObserver_NilHub(t *testing.T) {
	o := NewWebSocketObserver(nil)
	if err := o.OnEvent(events.Event{Type: events.TypeBoosterOpened}); err != nil {
		t.Errorf("OnEvent() error = %v", err)
	}
}

func TestWebSocketObserver_ForwardsDispatchedEvents(t *testing.T) {
	hub, wsURL := startHub(t, "*")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(NewWebSocketObserver(hub))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatcher.Dispatch(events.NewTypedEvent(context.Background(), events.TypeMilestoneReached,
		events.MilestoneReachedEvent{Threshold: 25, Owned: 10, Total: 40}, at))

	got := readEvent(t, conn)
	if got.Type != events.TypeMilestoneReached {
		t.Fatalf("Expected %s, got %s", events.TypeMilestoneReached, got.Type)
	}
	if got.Timestamp != float64(at.Unix()) {
		t.Errorf("Expected timestamp %d, got %v", at.Unix(), got.Timestamp)
	}
	data, ok := got.Data.(map[string]interface{})
	if !ok || data["threshold"] != float64(25) {
		t.Errorf("Unexpected payload: %#v", got.Data)
	}
}
