package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	ProfilePic   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(fullName, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Message is a persisted direct message between two users.
// Text and Image are both optional but at least one is set.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessage(senderID, receiverID, text, image string) *Message {
	return &Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  time.Now().UTC(),
	}
}

// Contact is a sidebar entry: another user plus their live presence.
type Contact struct {
	User   User
	Online bool
}
