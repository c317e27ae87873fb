package events

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingUpdated   = "booking_updated"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEventPayload is the booking snapshot sent to subscribers.
type BookingEventPayload struct {
	BookingID     int64     `json:"booking_id"`
	UserID        int64     `json:"user_id"`
	TripID        int64     `json:"trip_id"`
	Route         string    `json:"route,omitempty"`
	DepartureDate time.Time `json:"departure_date"`
	Seats         int       `json:"seats"`
	PreviousSeats int       `json:"previous_seats,omitempty"`
	AssignedSeats []int     `json:"assigned_seats,omitempty"`
	ChangedByID   int64     `json:"changed_by_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every handler of the event type and joins their errors.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		// synchronous; caller decides concurrency model
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
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

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}

// LogHandler writes every event it receives to logger at info level.
func LogHandler(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		logger.Info().
			Int64("event_id", event.ID).
			Str("type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("Booking event")
		return nil
	}
}

// SubscribeAll registers handler for every booking event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for _, t := range []string{EventBookingCreated, EventBookingUpdated, EventBookingCancelled} {
		b.Subscribe(t, handler)
	}
}
