// Package mongo is the document-store backend, selected with
// STORAGE_DRIVER=mongo. Records keep the same ids and fields as the SQL
// backend so the core never sees a difference.
package mongo

import (
	"context"

	"github.com/KelvCodes/real-time-chat-app/internal/config"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

// New connects, pings, and ensures indexes.
func New(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, nil, err
	}
	db := cli.Database(cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, nil, err
	}
	return cli, db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	return err
}

// TxManager runs fn directly. Every write here touches a single document,
// which Mongo applies atomically, and multi-document transactions would
// require a replica set.
type TxManager struct{}

var _ domain.Transactor = TxManager{}

func (TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
