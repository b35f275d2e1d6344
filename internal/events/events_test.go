package events

import (
	"encoding/json"
	"testing"
	"time"

	"viona/internal/models"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventSiteConfigUpdated, handler)

	err := bus.PublishJSON(EventSiteConfigUpdated, SiteConfigEventPayload{Rooms: 3})
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventSiteConfigUpdated {
		t.Errorf("expected type %s, got %s", EventSiteConfigUpdated, received.Type)
	}

	var decoded SiteConfigEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.Rooms != 3 {
		t.Errorf("expected rooms=3, got %d", decoded.Rooms)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2, countAll int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })
	bus.SubscribeAll(func(_ *Event) error { countAll++; return nil })

	bus.Publish(&Event{Type: "event"})
	bus.Publish(&Event{Type: "other"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
	if countAll != 2 {
		t.Errorf("expected catch-all handler to see 2 events, got %d", countAll)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}

func TestNewBookingEventPayload(t *testing.T) {
	in := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	b := models.Booking{
		ID:           "b1",
		RoomID:       "cat_suite",
		RoomCategory: models.CategorySuite,
		CheckIn:      in,
		CheckOut:     in.AddDate(0, 0, 4),
		TotalPrice:   1800,
	}

	p := NewBookingEventPayload(b, models.LangEN)
	if p.BookingID != "b1" || p.Nights != 4 {
		t.Errorf("unexpected payload: %+v", p)
	}
	if p.CheckIn != "2024-06-01" || p.CheckOut != "2024-06-05" {
		t.Errorf("unexpected dates: %s - %s", p.CheckIn, p.CheckOut)
	}
}
