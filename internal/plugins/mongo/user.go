package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	FullName     string    `bson:"full_name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	ProfilePic   string    `bson:"profile_pic"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		ProfilePic:   d.ProfilePic,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UserRepo struct {
	coll *mongo.Collection
}

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepository(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(usersCollection)}
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		return domain.ErrInvalidUserID
	}
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		ProfilePic:   u.ProfilePic,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) UpdateProfilePic(ctx context.Context, id, url string) (*domain.User, error) {
	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"profile_pic": url, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepo) ListUsersExcept(ctx context.Context, id string) ([]domain.User, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"_id": bson.M{"$ne": id}},
		options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, *d.toDomain())
	}
	return users, nil
}
