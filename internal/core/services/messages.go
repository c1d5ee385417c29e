package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IMessageService interface {
	// ListContacts returns every other user with their live presence.
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
	// GetMessages returns the conversation between userID and otherID.
	GetMessages(ctx context.Context, userID, otherID string) ([]domain.Message, error)
	// SendMessage persists the message and then hands it to the router.
	SendMessage(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error)
}

type MessageService struct {
	users    domain.UserRepository
	Repo     domain.MessageRepository
	images   contracts.ImageStore
	router   *MessageRouter
	registry contracts.Registry
	log      *slog.Logger
}

var _ IMessageService = (*MessageService)(nil)

func NewMessageService(
	log *slog.Logger,
	users domain.UserRepository,
	repo domain.MessageRepository,
	images contracts.ImageStore,
	router *MessageRouter,
	registry contracts.Registry,
) *MessageService {
	return &MessageService{
		log:      log,
		users:    users,
		Repo:     repo,
		images:   images,
		router:   router,
		registry: registry,
	}
}

func (m *MessageService) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	users, err := m.users.ListUsersExcept(ctx, userID)
	if err != nil {
		m.log.ErrorContext(ctx, "messages - list contacts - list users failed", "user_id", userID, "err", err)
		return nil, err
	}
	contacts := make([]domain.Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, domain.Contact{User: u, Online: m.registry.IsOnline(u.ID)})
	}
	return contacts, nil
}

func (m *MessageService) GetMessages(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	if otherID == "" {
		return nil, domain.ErrInvalidUserID
	}
	msgs, err := m.Repo.GetConversation(ctx, userID, otherID)
	if err != nil {
		m.log.ErrorContext(ctx, "messages - get messages - get conversation failed", "user_id", userID, "other_id", otherID, "err", err)
		return nil, err
	}
	m.log.InfoContext(ctx, "messages - get messages - success", "user_id", userID, "len_messages", len(msgs))
	return msgs, nil
}

// SendMessage persists first; routing is a best-effort side channel that
// runs exactly once per stored message and never fails the request.
func (m *MessageService) SendMessage(
	ctx context.Context,
	senderID, receiverID string,
	text, image string,
) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "MessageService.SendMessage", trace.WithAttributes(
		attribute.String("sender_id", senderID),
		attribute.String("receiver_id", receiverID),
	))
	defer span.End()
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return nil, domain.ErrEmptyMessage
	}
	if receiverID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if _, err := m.users.GetUserByID(ctx, receiverID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	var imageURL string
	if image != "" {
		if m.images == nil {
			return nil, domain.ErrImageStoreDisabled
		}
		url, err := m.images.Upload(ctx, image)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "image upload failed")
			m.log.ErrorContext(ctx, "messages - send message - upload image failed", "sender_id", senderID, "err", err)
			return nil, fmt.Errorf("upload image: %w", err)
		}
		imageURL = url
	}
	msg := domain.NewMessage(senderID, receiverID, text, imageURL)
	if err := m.Repo.SaveMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save message failed")
		m.log.ErrorContext(ctx, "messages - send message - save failed", "sender_id", senderID, "receiver_id", receiverID, "err", err)
		return nil, err
	}
	delivered := m.router.Route(ctx, senderID, receiverID, msg)
	m.log.InfoContext(ctx, "messages - send message - success", "message_id", msg.ID, "delivered", delivered)
	return msg, nil
}
