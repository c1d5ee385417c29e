package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService struct {
	log        *slog.Logger
	repo       domain.UserRepository
	tx         domain.Transactor
	images     contracts.ImageStore
	bcryptCost int
}

func NewAuthService(
	log *slog.Logger,
	repo domain.UserRepository,
	tx domain.Transactor,
	images contracts.ImageStore,
	bcryptCost int,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		log:        log,
		repo:       repo,
		tx:         tx,
		images:     images,
		bcryptCost: bcryptCost,
	}
}

// Signup validates the input, hashes the password and persists a new user.
func (s *AuthService) Signup(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.log.ErrorContext(ctx, "auth - signup - hash password failed", "err", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.NewUser(fullName, email, string(hash))
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetUserByEmail(txCtx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return s.repo.CreateUser(txCtx, user)
	}); err != nil {
		if !errors.Is(err, domain.ErrEmailTaken) {
			s.log.ErrorContext(ctx, "auth - signup - create user failed", "email", email, "err", err)
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "auth - signup - user created", "user_id", user.ID)
	return user, nil
}

// Login returns ErrInvalidCredentials for both unknown e-mail and wrong
// password so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.log.ErrorContext(ctx, "auth - login - get user failed", "err", err)
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	s.log.InfoContext(ctx, "auth - login - success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfilePic uploads the image and stores its public URL.
func (s *AuthService) UpdateProfilePic(ctx context.Context, userID, image string) (*domain.User, error) {
	if strings.TrimSpace(image) == "" {
		return nil, domain.ErrProfilePicRequired
	}
	if s.images == nil {
		return nil, domain.ErrImageStoreDisabled
	}
	url, err := s.images.Upload(ctx, image)
	if err != nil {
		s.log.ErrorContext(ctx, "auth - update profile - upload failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("upload profile pic: %w", err)
	}
	user, err := s.repo.UpdateProfilePic(ctx, userID, url)
	if err != nil {
		s.log.ErrorContext(ctx, "auth - update profile - save failed", "user_id", userID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "auth - update profile - success", "user_id", userID)
	return user, nil
}
