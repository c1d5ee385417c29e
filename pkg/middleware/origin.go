package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// OriginPolicy is the set of browser origins allowed to call the API and
// open websockets.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginPolicy(log *slog.Logger, origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("origin policy - ignoring invalid origin", "origin", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// Allowed reports whether the request's Origin may be served. Requests
// without an Origin header come from non-browser clients and are allowed.
func (p *OriginPolicy) Allowed(r *http.Request) bool {
	return p.AllowedOrigin(r.Header.Get("Origin"))
}

func (p *OriginPolicy) AllowedOrigin(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := p.allowed[normalized]
	return exists
}

// CORS lets allowed browser origins call the API with credentials, so the
// session cookie travels cross-site.
func (p *OriginPolicy) CORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc:  p.AllowedOrigin,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(next)
}
