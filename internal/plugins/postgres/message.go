package postgres

import (
	"context"
	"database/sql"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"github.com/google/uuid"
)

type MessageRepo struct {
	db *sql.DB
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{
		db: db,
	}
}

func (r *MessageRepo) SaveMessage(ctx context.Context, msg *domain.Message) error {
	if uuid.Validate(msg.SenderID) != nil || uuid.Validate(msg.ReceiverID) != nil {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO messages (
			id, sender_id, receiver_id, text, image, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Text,
		msg.Image,
		msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	if uuid.Validate(a) != nil || uuid.Validate(b) != nil {
		return nil, domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.Text,
			&m.Image,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
