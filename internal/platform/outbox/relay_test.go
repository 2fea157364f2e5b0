package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	Code string `json:"code"`
}

func (sampleEvent) EventName() string      { return "sample.created" }
func (sampleEvent) OccurredAt() time.Time  { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
func (e sampleEvent) AggregateKey() string { return e.Code }

type sliceSource struct {
	records []Record
	sent    map[int64]bool
}

func (s *sliceSource) FetchPending(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range s.records {
		if s.sent[rec.ID] {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *sliceSource) MarkSent(_ context.Context, id int64) error {
	s.sent[id] = true
	return nil
}

type recordingPublisher struct {
	published []Record
	failOn    int64
}

func (p *recordingPublisher) Publish(_ context.Context, rec Record) error {
	if rec.ID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, rec)
	return nil
}

func TestNewRecord_WrapsEnvelope(t *testing.T) {
	rec, err := NewRecord("", sampleEvent{Code: "ORD-1"})
	require.NoError(t, err)
	require.Equal(t, DefaultTopic, rec.Topic)
	require.Equal(t, "ORD-1", rec.Key)
	require.Equal(t, "sample.created", rec.Type)
	require.NotEmpty(t, rec.EventID)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Payload, &envelope))
	require.Equal(t, rec.EventID, envelope.EventID)
	require.JSONEq(t, `{"code":"ORD-1"}`, string(envelope.Data))
}

func TestRelayFlush_StopsAtFirstFailure(t *testing.T) {
	source := &sliceSource{
		records: []Record{{ID: 1}, {ID: 2}, {ID: 3}},
		sent:    map[int64]bool{},
	}
	publisher := &recordingPublisher{failOn: 2}
	relay := NewRelay(source, publisher, WithBatchSize(10))

	sent, err := relay.Flush(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, sent)
	require.True(t, source.sent[1])
	require.False(t, source.sent[2])
	require.False(t, source.sent[3])

	publisher.failOn = 0
	sent, err = relay.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Len(t, publisher.published, 3)
}
