package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Relay moves pending records from a Source to a Publisher.
// Delivery is at-least-once: a record is marked sent only after a successful publish.
type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

// RelayOption customises a Relay.
type RelayOption func(*Relay)

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRelay wires a relay between source and publisher.
func NewRelay(source Source, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Flush publishes one batch and returns how many records were sent.
// It stops at the first publish failure so records keep their order.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	if r == nil || r.source == nil || r.publisher == nil {
		return 0, errors.New("outbox relay not configured")
	}
	records, err := r.source.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, record := range records {
		if err := r.publisher.Publish(ctx, record); err != nil {
			return sent, err
		}
		if err := r.source.MarkSent(ctx, record.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Run flushes until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		sent, err := r.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "outbox relay flush failed", slog.String("error", err.Error()))
		} else if sent > 0 {
			r.logger.LogAttrs(ctx, slog.LevelInfo, "outbox records published", slog.Int("count", sent))
		}
		if sent == r.batchSize {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
