package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

type recordingWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewClient_ParsesBrokers(t *testing.T) {
	client := NewClient(" kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, client.Brokers)
	assert.True(t, client.Enabled())
	assert.False(t, NewClient("").Enabled())
}

func TestNewPublisher_Disabled(t *testing.T) {
	_, err := NewPublisher(NewClient(""))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestPublisher_Publish(t *testing.T) {
	writer := &recordingWriter{}
	publisher := &Publisher{writer: writer}
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	err := publisher.Publish(context.Background(), outbox.Record{
		EventID:   "6f1c",
		Topic:     "storefront.orders",
		Key:       "ORD-0A1B2C3D4E5F",
		Type:      "store.order.placed",
		Payload:   []byte(`{"type":"store.order.placed"}`),
		CreatedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "storefront.orders", msg.Topic)
	assert.Equal(t, "ORD-0A1B2C3D4E5F", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event-type", Value: []byte("store.order.placed")})

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}
