package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageRouter pushes an already persisted message to its receiver's live
// connection. It never persists, retries, or fans out.
type MessageRouter struct {
	registry contracts.Registry
	log      *slog.Logger
}

func NewMessageRouter(log *slog.Logger, registry contracts.Registry) *MessageRouter {
	return &MessageRouter{
		log:      log,
		registry: registry,
	}
}

// Route reports whether the message was handed to the receiver's
// connection. A false result is not an error: the receiver picks the
// message up on its next fetch.
func (r *MessageRouter) Route(ctx context.Context, senderID, receiverID string, msg *domain.Message) bool {
	ctx, span := tracer.Start(ctx, "MessageRouter.Route", trace.WithAttributes(
		attribute.String("sender_id", senderID),
		attribute.String("receiver_id", receiverID),
	))
	defer span.End()
	if msg == nil || senderID == receiverID {
		return false
	}
	c, ok := r.registry.Get(receiverID)
	if !ok {
		span.SetAttributes(attribute.Bool("chat.delivered", false))
		return false
	}
	data, err := json.Marshal(domain.MessageEvent{
		Type:    domain.TypeMessage,
		Message: *msg,
	})
	if err != nil {
		r.log.ErrorContext(ctx, "router - route - marshal failed", "message_id", msg.ID, "err", err)
		return false
	}
	if err := c.Send(data); err != nil {
		span.RecordError(err)
		r.log.WarnContext(ctx, "router - route - send failed", "message_id", msg.ID, "receiver_id", receiverID, "err", err)
		return false
	}
	span.SetAttributes(attribute.Bool("chat.delivered", true))
	r.log.DebugContext(ctx, "router - route - delivered", "message_id", msg.ID, "receiver_id", receiverID)
	return true
}
