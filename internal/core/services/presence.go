package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
)

// PresenceService publishes the full online set to every live connection.
type PresenceService struct {
	mu       sync.Mutex
	registry contracts.Registry
	log      *slog.Logger
}

func NewPresenceService(log *slog.Logger, registry contracts.Registry) *PresenceService {
	return &PresenceService{
		log:      log,
		registry: registry,
	}
}

// Announce snapshots the registry and enqueues the result on every live
// connection. Calls are serialized so each connection sees announcements
// in the order they were taken. Enqueue never blocks and failures are
// absorbed; returns the number of connections that accepted the event.
func (p *PresenceService) Announce(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	online := p.registry.Snapshot()
	clients := p.registry.Clients()
	data, err := json.Marshal(domain.PresenceEvent{
		Type:   domain.TypePresence,
		Online: online,
	})
	if err != nil {
		p.log.ErrorContext(ctx, "presence - announce - marshal failed", "err", err)
		return 0
	}
	sent := 0
	for _, c := range clients {
		if err := c.Send(data); err != nil {
			p.log.DebugContext(ctx, "presence - announce - send failed", "user_id", c.UserID(), "err", err)
			continue
		}
		sent++
	}
	p.log.DebugContext(ctx, "presence - announce - done", "online", len(online), "sent", sent)
	return sent
}
