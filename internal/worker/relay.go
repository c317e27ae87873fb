package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"tripseat/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultQueueKey is the Redis list booking events are pushed to.
const DefaultQueueKey = "tripseat:booking_events"

// RelayMessage is the JSON envelope pushed to Redis for downstream consumers.
type RelayMessage struct {
	EventID   int64           `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

// EventRelay forwards booking events from the in-process bus to a Redis list.
// Consumers BRPOP from QueueKey. Messages that keep failing go to the
// dead-letter list.
type EventRelay struct {
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan RelayMessage
	queueKey      string
	deadLetterKey string
	dropped       atomic.Int64
	logger        *zerolog.Logger
}

func NewEventRelay(redisClient *redis.Client, queueKey string, retry RetryPolicy, logger *zerolog.Logger) *EventRelay {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	return &EventRelay{
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan RelayMessage, 256),
		queueKey:      queueKey,
		deadLetterKey: queueKey + ":deadletter",
		logger:        logger,
	}
}

// Handle is an events.EventHandler. It never blocks the publisher; a full
// buffer drops the event with a warning.
func (r *EventRelay) Handle(event *events.Event) error {
	msg := RelayMessage{
		EventID:   event.ID,
		Type:      event.Type,
		Payload:   json.RawMessage(event.Payload),
		CreatedAt: event.CreatedAt,
	}
	select {
	case r.queue <- msg:
		return nil
	default:
		r.dropped.Add(1)
		r.logger.Warn().Int64("event_id", event.ID).Str("type", event.Type).Msg("event relay queue full, event dropped")
		return nil
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (r *EventRelay) Dropped() int64 {
	return r.dropped.Load()
}

// Start launches main loop; stops when ctx is done.
func (r *EventRelay) Start(ctx context.Context) {
	r.logger.Info().Str("queue", r.queueKey).Msg("event relay started")
	defer r.logger.Info().Msg("event relay stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			r.deliver(ctx, msg)
		}
	}
}

func (r *EventRelay) deliver(ctx context.Context, msg RelayMessage) {
	for {
		msg.Attempts++
		err := r.push(ctx, r.queueKey, msg)
		if err == nil {
			return
		}
		msg.LastError = err.Error()

		if msg.Attempts >= r.retryPolicy.MaxRetries {
			r.logger.Error().Err(err).Int64("event_id", msg.EventID).Int("attempts", msg.Attempts).Msg("event relay giving up")
			r.pushDeadLetter(ctx, msg)
			return
		}

		r.logger.Warn().Err(err).Int64("event_id", msg.EventID).Int("attempt", msg.Attempts).Msg("event relay push failed, retrying")
		if err := r.retryPolicy.Wait(ctx, msg.Attempts); err != nil {
			return
		}
	}
}

func (r *EventRelay) push(ctx context.Context, key string, msg RelayMessage) error {
	if r.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	return r.redis.LPush(ctx, key, data).Err()
}

func (r *EventRelay) pushDeadLetter(ctx context.Context, msg RelayMessage) {
	if err := r.push(ctx, r.deadLetterKey, msg); err != nil {
		r.logger.Error().Err(err).Int64("event_id", msg.EventID).Msg("event relay deadletter push failed")
	}
}
