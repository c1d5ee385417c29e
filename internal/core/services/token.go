package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type TokenService struct {
	log       *slog.Logger
	secretKey []byte
	issuer    string
	ttl       time.Duration
	revoked   contracts.TokenStore
}

func NewTokenService(
	log *slog.Logger,
	secret string,
	issuer string,
	ttl time.Duration,
	revoked contracts.TokenStore,
) *TokenService {
	return &TokenService{
		log:       log,
		secretKey: []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		revoked:   revoked,
	}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,                // Subject
		"jti": uuid.NewString(),      // Token ID, used for revocation
		"iat": now.Unix(),            // Issued At
		"exp": now.Add(s.ttl).Unix(), // Expiration
		"iss": s.issuer,              // Issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken parses and validates the JWT string
func (s *TokenService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		// Ensure signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, domain.ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domain.ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	return &Claims{UserID: sub, TokenID: jti, ExpiresAt: exp.Time}, nil
}

// Authenticate validates the token and checks it has not been revoked.
// A revocation store outage is logged and does not lock users out.
func (s *TokenService) Authenticate(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if s.revoked == nil || claims.TokenID == "" {
		return claims, nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		s.log.WarnContext(ctx, "token - authenticate - revocation lookup failed", "err", err)
		return claims, nil
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token until its natural expiry. Invalid tokens are
// ignored since they cannot authenticate anyway.
func (s *TokenService) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil || s.revoked == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.TokenID, ttl)
}
