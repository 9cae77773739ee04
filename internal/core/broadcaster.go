package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Broadcaster fans the full online set out to every live connection.
type Broadcaster struct {
	registry *Registry
	metrics  *metrics
	log      *zerolog.Logger

	// serialises announcements so the last push any connection sees carries the
	// newest snapshot.
	mu sync.Mutex
}

// NewBroadcaster builds a broadcaster reading from registry.
func NewBroadcaster(registry *Registry, m *metrics, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, metrics: m, log: logger}
}

// Announce pushes the current online set to all live connections and returns how many
// accepted it. A failing connection is logged and skipped.
func (b *Broadcaster) Announce(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	online, conns := b.registry.Snapshot()
	ev := PresenceEvent(online)

	delivered := 0
	for _, c := range conns {
		if err := c.Push(ev); err != nil {
			b.metrics.pushFailed(ctx, EventPresence)
			b.log.Warn().Err(err).
				Str("client_id", c.ID()).
				Str("user_id", c.UserID()).
				Msg("presence push failed")
			continue
		}
		delivered++
	}

	b.metrics.broadcast(ctx)
	b.log.Debug().Int("online", len(online)).Int("delivered", delivered).Msg("presence announced")
	return delivered
}
