package domain

import "errors"

var (
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyMessage       = errors.New("message must contain text or an image")
	ErrProfilePicRequired = errors.New("profile pic is required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrImageStoreDisabled = errors.New("image upload is not configured")
)
