package events

import (
	"encoding/json"
	"sync"
	"time"

	"viona/internal/models"
)

const (
	EventBookingCreated      = "booking_created"
	EventSiteConfigUpdated   = "site_config_updated"
	EventOverbookingDetected = "overbooking_detected"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID    string              `json:"booking_id"`
	RoomID       string              `json:"room_id"`
	RoomCategory models.RoomCategory `json:"room_category"`
	CheckIn      string              `json:"check_in"`
	CheckOut     string              `json:"check_out"`
	Nights       int                 `json:"nights"`
	TotalPrice   int                 `json:"total_price"`
	Lang         models.Language     `json:"lang,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func NewBookingEventPayload(b models.Booking, lang models.Language) BookingEventPayload {
	return BookingEventPayload{
		BookingID:    b.ID,
		RoomID:       b.RoomID,
		RoomCategory: b.RoomCategory,
		CheckIn:      b.CheckIn.Format(models.DateLayout),
		CheckOut:     b.CheckOut.Format(models.DateLayout),
		Nights:       b.Nights(),
		TotalPrice:   b.TotalPrice,
		Lang:         lang,
		CreatedAt:    b.CreatedAt,
	}
}

type SiteConfigEventPayload struct {
	Rooms     int       `json:"rooms"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OverbookingEventPayload struct {
	CheckIn    string                      `json:"check_in"`
	CheckOut   string                      `json:"check_out"`
	Overbooked map[models.RoomCategory]int `json:"overbooked"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	all         []EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
