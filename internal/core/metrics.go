package core

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/vovakirdan/wirechat-presence/internal/core"

type metrics struct {
	broadcasts   metric.Int64Counter
	routed       metric.Int64Counter
	pushFailures metric.Int64Counter
	online       metric.Int64ObservableGauge
}

// newMetrics registers the core instruments on meter. An instrument that fails to
// register is replaced by a noop one and logged.
func newMetrics(meter metric.Meter, registry *Registry, logger *zerolog.Logger) *metrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	warn := func(name string, err error) {
		logger.Warn().Err(err).Str("instrument", name).Msg("metric registration failed, using noop")
	}

	m := &metrics{}
	var err error
	if m.broadcasts, err = meter.Int64Counter("presence.broadcasts",
		metric.WithDescription("Presence updates announced")); err != nil {
		warn("presence.broadcasts", err)
		m.broadcasts = noop.Int64Counter{}
	}
	if m.routed, err = meter.Int64Counter("delivery.routed",
		metric.WithDescription("Direct messages routed, by outcome")); err != nil {
		warn("delivery.routed", err)
		m.routed = noop.Int64Counter{}
	}
	if m.pushFailures, err = meter.Int64Counter("push.failures",
		metric.WithDescription("Pushes rejected by a connection")); err != nil {
		warn("push.failures", err)
		m.pushFailures = noop.Int64Counter{}
	}

	if m.online, err = meter.Int64ObservableGauge("presence.online",
		metric.WithDescription("Identities with a live connection"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(registry.Len()))
			return nil
		}),
	); err != nil {
		warn("presence.online", err)
		m.online = noop.Int64ObservableGauge{}
	}

	return m
}

func (m *metrics) broadcast(ctx context.Context) {
	m.broadcasts.Add(ctx, 1)
}

func (m *metrics) route(ctx context.Context, outcome Outcome) {
	m.routed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

func (m *metrics) pushFailed(ctx context.Context, kind EventKind) {
	m.pushFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("event", kind.String())))
}
