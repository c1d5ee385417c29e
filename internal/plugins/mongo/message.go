package mongo

import (
	"context"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageDoc struct {
	ID         string    `bson:"_id"`
	SenderID   string    `bson:"sender_id"`
	ReceiverID string    `bson:"receiver_id"`
	Text       string    `bson:"text,omitempty"`
	Image      string    `bson:"image,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

type MessageRepo struct {
	coll *mongo.Collection
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{coll: db.Collection(messagesCollection)}
}

func (r *MessageRepo) SaveMessage(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, messageDoc{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		CreatedAt:  msg.CreatedAt,
	})
	return err
}

func (r *MessageRepo) GetConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, domain.Message{
			ID:         d.ID,
			SenderID:   d.SenderID,
			ReceiverID: d.ReceiverID,
			Text:       d.Text,
			Image:      d.Image,
			CreatedAt:  d.CreatedAt,
		})
	}
	return msgs, nil
}
