package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingClient is a connection handle that keeps every frame it is sent.
type recordingClient struct {
	mu      sync.Mutex
	id      string
	frames  [][]byte
	closed  bool
	failing bool
}

func newRecordingClient(id string) *recordingClient {
	return &recordingClient{id: id}
}

func (c *recordingClient) UserID() string { return c.id }

func (c *recordingClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failing {
		return errors.New("send on dead client")
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *recordingClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingClient) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *recordingClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (r *memUserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdateProfilePic(ctx context.Context, id, url string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.ProfilePic = url
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ListUsersExcept(ctx context.Context, id string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type memMessageRepo struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (r *memMessageRepo) SaveMessage(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memMessageRepo) GetConversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.msgs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeImages struct {
	url     string
	err     error
	uploads []string
}

func (f *fakeImages) Upload(ctx context.Context, image string) (string, error) {
	f.uploads = append(f.uploads, image)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type memTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{revoked: map[string]time.Duration{}}
}

func (s *memTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = ttl
	return nil
}

func (s *memTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[jti]
	return ok, nil
}
