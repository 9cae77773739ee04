package core

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// rejectingMeter refuses every instrument registration.
type rejectingMeter struct {
	noop.Meter
}

func (rejectingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("counter rejected")
}

func (rejectingMeter) Int64ObservableGauge(string, ...metric.Int64ObservableGaugeOption) (metric.Int64ObservableGauge, error) {
	return nil, errors.New("gauge rejected")
}

func TestMetricsFallBackToNoopWhenRegistrationFails(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	m := newMetrics(rejectingMeter{}, NewRegistry(), &logger)

	assert.NotPanics(t, func() {
		ctx := context.Background()
		m.broadcast(ctx)
		m.route(ctx, Delivered)
		m.pushFailed(ctx, EventMessage)
	})
	assert.NotNil(t, m.online)
	for _, name := range []string{"presence.broadcasts", "delivery.routed", "push.failures", "presence.online"} {
		assert.Contains(t, buf.String(), name)
	}
}

type ctxKey struct{}

// recordingMeter hands out counters that remember the request value seen on each Add.
type recordingMeter struct {
	noop.Meter

	mu   sync.Mutex
	seen map[string][]any
}

type recordingCounter struct {
	noop.Int64Counter
	name  string
	meter *recordingMeter
}

func (c recordingCounter) Add(ctx context.Context, _ int64, _ ...metric.AddOption) {
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	c.meter.seen[c.name] = append(c.meter.seen[c.name], ctx.Value(ctxKey{}))
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return recordingCounter{name: name, meter: m}, nil
}

func (m *recordingMeter) values(name string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.seen[name]...)
}

func TestRouteRecordsPushFailureWithCallerContext(t *testing.T) {
	meter := &recordingMeter{seen: map[string][]any{}}
	hub := NewHub(nil, HubConfig{Meter: meter}, nil)

	h := newFakeConn("h1", "u1")
	hub.Connect(h)
	h.setFail(true)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	assert.Equal(t, NotConnected, hub.Route(ctx, "u1", Message{Text: "x"}))

	failures := meter.values("push.failures")
	require.Len(t, failures, 1)
	assert.Equal(t, "req-42", failures[0])
	assert.Equal(t, []any{"req-42"}, meter.values("delivery.routed"))
}
