package services

import (
	"context"
	"log/slog"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type IManagerService interface {
	// HandleConnect registers an authenticated connection, closing any
	// connection it replaces, and announces presence.
	HandleConnect(ctx context.Context, userID string, c contracts.Client)
	// HandleDisconnect removes the connection if it is still the current
	// one for userID and announces presence either way.
	HandleDisconnect(ctx context.Context, userID string, c contracts.Client)
	// Shutdown closes every live connection.
	Shutdown(ctx context.Context)
}

var tracer = otel.Tracer("chat-core")

// ManagerService drives the connection lifecycle:
// connecting → registered → active → closed.
type ManagerService struct {
	registry contracts.Registry
	presence *PresenceService
	log      *slog.Logger
}

var _ IManagerService = (*ManagerService)(nil)

func NewManagerService(
	log *slog.Logger,
	registry contracts.Registry,
	presence *PresenceService,
) *ManagerService {
	return &ManagerService{
		log:      log,
		registry: registry,
		presence: presence,
	}
}

func (m *ManagerService) HandleConnect(ctx context.Context, userID string, c contracts.Client) {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleConnect", trace.WithAttributes(
		attribute.String("user_id", userID),
	))
	defer span.End()
	if prev := m.registry.Register(userID, c); prev != nil {
		// Last writer wins; the replaced connection runs its own cleanup,
		// which the identity check in Unregister turns into a no-op.
		prev.Close()
		span.SetAttributes(attribute.Bool("chat.replaced", true))
		m.log.InfoContext(ctx, "manager - handle connect - replaced previous connection", "user_id", userID)
	}
	sent := m.presence.Announce(ctx)
	m.log.InfoContext(ctx, "manager - handle connect - registered", "user_id", userID, "notified", sent)
}

func (m *ManagerService) HandleDisconnect(ctx context.Context, userID string, c contracts.Client) {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleDisconnect", trace.WithAttributes(
		attribute.String("user_id", userID),
	))
	defer span.End()
	removed := m.registry.Unregister(userID, c)
	span.SetAttributes(attribute.Bool("chat.removed", removed))
	m.presence.Announce(ctx)
	m.log.InfoContext(ctx, "manager - handle disconnect - closed", "user_id", userID, "removed", removed)
}

// IsOnline reports whether userID currently holds a live connection.
func (m *ManagerService) IsOnline(userID string) bool {
	return m.registry.IsOnline(userID)
}

func (m *ManagerService) Shutdown(ctx context.Context) {
	clients := m.registry.Clients()
	for _, c := range clients {
		c.Close()
	}
	m.log.InfoContext(ctx, "manager - shutdown - closed connections", "count", len(clients))
}
