package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// DefaultCookieName is where the session token travels for browser clients
// when no other name is configured.
const DefaultCookieName = "jwt"

// TokenFromRequest returns the session token from the named cookie, falling
// back to an Authorization: Bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// UserIDFromContext returns the authenticated user id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func AuthMiddleware(tokenSvc *services.TokenService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.FromContext(r.Context())
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				log.DebugContext(r.Context(), "auth middleware - no token provided")
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized - No Token Provided")
				return
			}
			claims, err := tokenSvc.Authenticate(r.Context(), token)
			if err != nil {
				log.DebugContext(r.Context(), "auth middleware - token rejected", logging.Err(err))
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized - Invalid Token")
				return
			}
			// Inject UserID into Context
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = logging.WithContext(ctx, log.With(logging.User(claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
