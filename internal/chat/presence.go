package chat

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Broadcaster pushes the current online-user snapshot to every live
// connection whenever registry membership changes.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger

	mu sync.Mutex
}

// NewBroadcaster creates a presence broadcaster over the registry.
func NewBroadcaster(log *slog.Logger, registry *Registry) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		registry: registry,
		logger:   log.With(slog.String("component", "presence")),
	}
}

// Announce computes the registry snapshot and fans it out to all registered
// connections. Fan-out is best-effort and independent per connection: a full
// buffer or closed connection is logged and skipped, never propagated. The
// heartbeat path evicts such connections eventually.
//
// Snapshot and fan-out run as one serialized unit, so concurrent membership
// changes cannot queue an older snapshot after a newer one; the last event
// a client receives always reflects the latest announced state.
func (b *Broadcaster) Announce() {
	b.mu.Lock()
	defer b.mu.Unlock()

	payload, err := json.Marshal(PresenceEvent{Online: b.registry.Snapshot()})
	if err != nil {
		b.logger.Error("marshal presence event", slog.Any("error", err))
		return
	}
	for _, c := range b.registry.All() {
		if err := c.TrySend(payload); err != nil {
			b.logger.Warn("presence push skipped",
				slog.String("conn_id", c.ID()),
				slog.String("user_id", c.Identity().UserID),
				slog.Any("error", err),
			)
		}
	}
}
