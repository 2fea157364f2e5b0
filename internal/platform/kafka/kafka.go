// Package kafka publishes outbox records to Kafka.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client holds the broker list parsed from a comma separated string.
type Client struct {
	Brokers []string
}

// NewClient parses brokersCSV, ignoring blanks.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// NewWriter returns a writer that routes each message by its own topic,
// hashing the key so one order's events stay on one partition.
func (c *Client) NewWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ outbox.Publisher = (*Publisher)(nil)

// Publisher writes outbox records as Kafka messages.
type Publisher struct {
	writer messageWriter
}

// NewPublisher builds a publisher on the client's brokers.
func NewPublisher(client *Client) (*Publisher, error) {
	if !client.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{writer: client.NewWriter()}, nil
}

func (p *Publisher) Publish(ctx context.Context, record outbox.Record) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: record.Topic,
		Key:   []byte(record.Key),
		Value: record.Payload,
		Time:  record.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(record.EventID)},
			{Key: "event-type", Value: []byte(record.Type)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
