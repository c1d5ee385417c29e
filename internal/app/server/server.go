package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/app/server/handlers"
	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/middleware"
)

// Deps are the collaborators the HTTP surface is assembled from.
type Deps struct {
	Auth     *services.AuthService
	Tokens   *services.TokenService
	Messages services.IMessageService
	Manager  services.IManagerService
	Limiter  contracts.RateLimiter
}

// Options are the HTTP-level knobs taken from config.
type Options struct {
	Name         string
	Addr         string
	ClientURLs   []string
	SecureCookie bool
	CookieName   string
	RateLimit    int
	RateWindow   time.Duration
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []string
	WS             handlers.WSOptions
}

type Server struct {
	log    *slog.Logger
	opts   Options
	mux    *http.ServeMux
	http   *http.Server
	deps   Deps
	origin *middleware.OriginPolicy
	proxy  *middleware.ProxyTrust

	authHandler   *handlers.AuthHandler
	msgHandler    *handlers.MessageHandler
	wsHandler     *handlers.WSHandler
	healthHandler *handlers.HealthHandler
}

func NewServer(log *slog.Logger, opts Options, deps Deps) *Server {
	if opts.CookieName == "" {
		opts.CookieName = middleware.DefaultCookieName
	}
	origin := middleware.NewOriginPolicy(log, opts.ClientURLs)
	s := &Server{
		log:    log,
		opts:   opts,
		mux:    http.NewServeMux(),
		deps:   deps,
		origin: origin,
		proxy:  middleware.NewProxyTrust(log, opts.TrustedProxies),
		authHandler: handlers.NewAuthHandler(deps.Auth, deps.Tokens, handlers.CookieOptions{
			Name:   opts.CookieName,
			Secure: opts.SecureCookie,
		}),
		msgHandler:    handlers.NewMessageHandler(deps.Messages),
		wsHandler:     handlers.NewWSHandler(deps.Manager, origin, opts.WS),
		healthHandler: handlers.NewHealthHandler(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.deps.Tokens, s.opts.CookieName)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Public
	s.mux.HandleFunc("GET /api/health", s.healthHandler.Health)
	s.mux.HandleFunc("POST /api/auth/signup", s.authHandler.Signup)
	s.mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
	s.mux.HandleFunc("POST /api/auth/logout", s.authHandler.Logout)

	// Protected
	s.mux.Handle("PUT /api/auth/update-profile", protected(s.authHandler.UpdateProfile))
	s.mux.Handle("GET /api/auth/check", protected(s.authHandler.Check))
	s.mux.Handle("GET /api/messages/users", protected(s.msgHandler.Users))
	s.mux.Handle("GET /api/messages/{id}", protected(s.msgHandler.Conversation))
	s.mux.Handle("POST /api/messages/send/{id}", protected(s.msgHandler.Send))
	s.mux.Handle("GET /ws", protected(s.wsHandler.Handler))
}

// Handler is the mux wrapped in the request middleware chain, outermost
// first: tracing, logging, CORS, rate limiting.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.RateLimit(s.deps.Limiter, s.opts.RateLimit, s.opts.RateWindow, s.proxy)(h)
	h = s.origin.CORS(h)
	h = middleware.RequestLogger(s.log)(h)
	h = middleware.TracerMiddleware(s.opts.Name)(h)
	return h
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server - start - listening", "addr", s.opts.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. Hijacked
// websocket connections are not tracked by net/http; the lifecycle manager
// closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
