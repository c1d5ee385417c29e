package contracts

import (
	"context"
	"time"
)

// TokenStore keeps revoked token ids until they would have expired anyway.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
