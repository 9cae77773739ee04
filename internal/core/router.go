package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Outcome reports what happened to a routed message.
type Outcome int

const (
	// NotConnected means the recipient has no live connection, or the push failed.
	NotConnected Outcome = iota
	// Delivered means the message was handed to the recipient's live connection.
	Delivered
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "not_connected"
}

// Router pushes a single message to its recipient's live connection, if any.
// There is no queueing for offline recipients; they read persisted history instead.
type Router struct {
	registry *Registry
	metrics  *metrics
	log      *zerolog.Logger
}

// NewRouter builds a router reading from registry.
func NewRouter(registry *Registry, m *metrics, logger *zerolog.Logger) *Router {
	return &Router{registry: registry, metrics: m, log: logger}
}

// Route attempts a live push of msg to the recipient.
func (r *Router) Route(ctx context.Context, recipientID string, msg Message) Outcome {
	outcome := r.route(ctx, recipientID, msg)
	r.metrics.route(ctx, outcome)
	return outcome
}

func (r *Router) route(ctx context.Context, recipientID string, msg Message) Outcome {
	conn, ok := r.registry.Lookup(recipientID)
	if !ok {
		return NotConnected
	}

	if err := conn.Push(MessageEvent(msg)); err != nil {
		r.metrics.pushFailed(ctx, EventMessage)
		r.log.Warn().Err(err).
			Str("client_id", conn.ID()).
			Str("user_id", recipientID).
			Int64("message_id", msg.ID).
			Msg("message push failed")
		return NotConnected
	}
	return Delivered
}
