package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

// HubConfig tunes the presence hub.
type HubConfig struct {
	HandshakeTimeout time.Duration
	ClientBuffer     int
	Meter            metric.Meter
}

// Hub owns the connection registry and wires the gate, broadcaster and router to it.
type Hub struct {
	registry    *Registry
	gate        *Gate
	broadcaster *Broadcaster
	router      *Router
	log         *zerolog.Logger
}

// NewHub creates a new presence hub instance.
func NewHub(auth Authenticator, cfg HubConfig, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry()
	m := newMetrics(cfg.Meter, registry, logger)

	h := &Hub{
		registry:    registry,
		gate:        NewGate(auth, cfg.HandshakeTimeout, cfg.ClientBuffer, logger),
		broadcaster: NewBroadcaster(registry, m, logger),
		router:      NewRouter(registry, m, logger),
		log:         logger,
	}
	registry.OnChange(func() {
		h.broadcaster.Announce(context.Background())
	})
	return h
}

// Admit authenticates a handshake credential. The returned client is not yet registered.
func (h *Hub) Admit(ctx context.Context, credential string) (*Client, error) {
	return h.gate.Admit(ctx, credential)
}

// Connect registers c, closing any session it replaces.
// After Run has stopped the hub, c is closed and ErrHubStopped is returned.
func (h *Hub) Connect(c Conn) error {
	replaced, err := h.registry.Register(c)
	if err != nil {
		h.log.Info().Err(err).Str("client_id", c.ID()).Str("user_id", c.UserID()).Msg("connection refused")
		c.Close()
		return err
	}
	h.log.Info().Str("client_id", c.ID()).Str("user_id", c.UserID()).Msg("client connected")

	if replaced != nil {
		h.log.Info().
			Str("client_id", replaced.ID()).
			Str("user_id", replaced.UserID()).
			Msg("session replaced by newer connection")
		replaced.Close()
	}
	return nil
}

// Disconnect unregisters c. A disconnect from an already replaced session is ignored.
func (h *Hub) Disconnect(c Conn) {
	if !h.registry.Unregister(c) {
		h.log.Debug().Str("client_id", c.ID()).Str("user_id", c.UserID()).Msg("stale disconnect ignored")
		return
	}
	h.log.Info().Str("client_id", c.ID()).Str("user_id", c.UserID()).Msg("client disconnected")
}

// Route pushes msg to the recipient's live connection, if there is one.
func (h *Hub) Route(ctx context.Context, recipientID string, msg Message) Outcome {
	return h.router.Route(ctx, recipientID, msg)
}

// Online returns the current online set.
func (h *Hub) Online() []string {
	return h.registry.Online()
}

// IsOnline reports whether userID has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// Run blocks until ctx is done, then refuses new connections and closes every live one.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	conns := h.registry.Close()
	for _, c := range conns {
		c.Close()
	}
	h.log.Info().Int("connections", len(conns)).Msg("hub stopped")
}
