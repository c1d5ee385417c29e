package domain

import "context"

// UserRepository handles account persistence.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser returns ErrEmailTaken when the e-mail is already registered.
	CreateUser(ctx context.Context, u *User) error
	UpdateProfilePic(ctx context.Context, id, url string) (*User, error)
	// ListUsersExcept returns every user but the given one, ordered by name.
	ListUsersExcept(ctx context.Context, id string) ([]User, error)
}

// MessageRepository handles direct message persistence.
type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *Message) error
	// GetConversation returns messages exchanged between a and b in
	// either direction, oldest first.
	GetConversation(ctx context.Context, a, b string) ([]Message, error)
}

// Transactor runs fn inside a storage transaction when the backend has one.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
