package domain

import "time"

// Event type tags. Clients switch on "type" before decoding the rest.
const (
	TypeMessage  = "message"
	TypePresence = "presence"
)

// PresenceEvent is pushed to every live connection on each registry change.
type PresenceEvent struct {
	Type   string   `json:"type"` // "presence"
	Online []string `json:"online_user_ids"`
}

// MessageEvent is pushed to the receiver's connection only.
type MessageEvent struct {
	Type    string  `json:"type"` // "message"
	Message Message `json:"message"`
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profile_pic"`
	CreatedAt  time.Time `json:"created_at"`
}

// ContactResponse is a sidebar entry.
type ContactResponse struct {
	UserResponse
	Online bool `json:"online"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}
