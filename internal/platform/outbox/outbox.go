// Package outbox stores domain events next to the state change that raised
// them and relays them to a message broker afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultTopic receives order lifecycle events.
const DefaultTopic = "storefront.orders"

// Event is the minimal contract for events written to the outbox.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateKey() string
}

// Envelope is the wire shape published for every event.
type Envelope struct {
	EventID    string          `json:"eventId"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Record is one outbox row.
type Record struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

// Source reads unsent records and marks them sent.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

// Publisher delivers one record to the broker.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
}

// NewRecord wraps the event in an Envelope with a fresh event id.
func NewRecord(topic string, event Event) (Record, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	data, err := json.Marshal(event)
	if err != nil {
		return Record{}, err
	}
	envelope := Envelope{
		EventID:    uuid.NewString(),
		Type:       event.EventName(),
		Key:        event.AggregateKey(),
		OccurredAt: event.OccurredAt().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return Record{}, err
	}
	return Record{
		EventID:   envelope.EventID,
		Topic:     topic,
		Key:       envelope.Key,
		Type:      envelope.Type,
		Payload:   payload,
		CreatedAt: envelope.OccurredAt,
	}, nil
}
