package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type memRevocations struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func (m *memRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jtis == nil {
		m.jtis = map[string]bool{}
	}
	m.jtis[jti] = true
	return nil
}

func (m *memRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jtis[jti], nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	_, _ = io.WriteString(w, id)
}

func TestAuthMiddleware(t *testing.T) {
	store := &memRevocations{}
	tokens := services.NewTokenService(discardLog, "secret", "chat", time.Hour, store)
	h := AuthMiddleware(tokens, DefaultCookieName)(http.HandlerFunc(echoUser))

	good, err := tokens.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	revoked, _ := tokens.GenerateToken("user-2")
	if err := tokens.Revoke(context.Background(), revoked); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: good})
		}, http.StatusOK, "user-1"},
		{"bearer fallback", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+good)
		}, http.StatusOK, "user-1"},
		{"garbage", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-token")
		}, http.StatusUnauthorized, ""},
		{"revoked", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: revoked})
		}, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && rec.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
			}
			if tc.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"message"`) {
				t.Fatalf("expected json error body, got %q", rec.Body.String())
			}
		})
	}
}

type countingLimiter struct {
	mu    sync.Mutex
	seen  map[string]int
	fails bool
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	if l.fails {
		return false, 0, errors.New("redis down")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[key]++
	n := l.seen[key]
	if n > limit {
		return false, 0, nil
	}
	return true, limit - n, nil
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := &countingLimiter{}
	h := RateLimit(limiter, 2, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := do("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other ip should pass, got %d", code)
	}
	// the limiter owns key namespacing; the middleware hands it the bare ip
	if limiter.seen["10.0.0.1"] != 3 {
		t.Fatalf("limiter keys = %v", limiter.seen)
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := &countingLimiter{}
	h := RateLimit(limiter, 2, time.Minute, NewProxyTrust(discardLog, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	if passed != 2 {
		t.Fatalf("%d of 50 requests passed, want 2", passed)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	h := RateLimit(&countingLimiter{fails: true}, 1, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		want    string
	}{
		{"socket peer", nil, "192.0.2.7:4000", "", "192.0.2.7"},
		{"untrusted peer ignores header", nil, "192.0.2.7:4000", "203.0.113.9", "192.0.2.7"},
		{"trusted proxy", []string{"10.0.0.0/8"}, "10.1.2.3:4000", "203.0.113.9", "203.0.113.9"},
		{"spoofed left hop", []string{"10.0.0.0/8"}, "10.1.2.3:4000", "1.1.1.1, 203.0.113.9", "203.0.113.9"},
		{"proxy chain", []string{"10.0.0.0/8", "172.16.0.1"}, "10.1.2.3:4000", "203.0.113.9, 172.16.0.1", "203.0.113.9"},
		{"trusted without header", []string{"10.1.2.3"}, "10.1.2.3:4000", "", "10.1.2.3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := NewProxyTrust(discardLog, tc.trusted).ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy(discardLog, []string{"http://localhost:5173", " HTTPS://Chat.Example.com ", "bogus"})
	cases := map[string]bool{
		"":                         true,
		"http://localhost:5173":    true,
		"https://chat.example.com": true,
		"http://localhost:3000":    false,
		"bogus":                    false,
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if got := p.Allowed(req); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", origin, got, want)
		}
	}

	all := NewOriginPolicy(discardLog, []string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://anything.test")
	if !all.Allowed(req) {
		t.Fatal("wildcard policy should allow any origin")
	}
}

func TestCORSPreflight(t *testing.T) {
	p := NewOriginPolicy(discardLog, []string{"http://localhost:5173"})
	h := p.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:5173")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("missing allow-origin header")
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("missing allow-credentials header")
	}

	if got := preflight("http://evil.test").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin got allow-origin %q", got)
	}
}

func TestCORSSimpleRequest(t *testing.T) {
	p := NewOriginPolicy(discardLog, []string{"http://localhost:5173"})
	reached := 0
	h := p.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached++ }))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/users", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatal("allowed origin should be echoed")
	}
	if reached != 1 {
		t.Fatal("simple request should reach the handler")
	}
}

func TestAuthCookieNameIsPerMiddleware(t *testing.T) {
	tokens := services.NewTokenService(discardLog, "secret", "chat", time.Hour, nil)
	token, _ := tokens.GenerateToken("user-1")
	a := AuthMiddleware(tokens, "session_a")(http.HandlerFunc(echoUser))
	b := AuthMiddleware(tokens, "session_b")(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_a", Value: token})

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("middleware a: status %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	b.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("middleware b must not read session_a, status %d", rec.Code)
	}
	if got := TokenFromRequest(req, "session_a"); got != token {
		t.Fatalf("TokenFromRequest = %q", got)
	}
}

func TestAuthRejectionLogsAtDebug(t *testing.T) {
	tokens := services.NewTokenService(discardLog, "secret", "chat", time.Hour, nil)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := AuthMiddleware(tokens, DefaultCookieName)(http.HandlerFunc(echoUser))

	for _, auth := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		req = req.WithContext(logging.WithContext(req.Context(), log))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("rejections should only be traced at debug, got %q", buf.String())
	}
}
