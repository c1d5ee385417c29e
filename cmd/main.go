package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/app/registry"
	"github.com/KelvCodes/real-time-chat-app/internal/app/server"
	"github.com/KelvCodes/real-time-chat-app/internal/app/server/handlers"
	"github.com/KelvCodes/real-time-chat-app/internal/app/server/ws"
	"github.com/KelvCodes/real-time-chat-app/internal/config"
	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/internal/platform/logger"
	"github.com/KelvCodes/real-time-chat-app/internal/platform/telemetry"
	"github.com/KelvCodes/real-time-chat-app/internal/plugins/cloudinary"
	mongoPlugin "github.com/KelvCodes/real-time-chat-app/internal/plugins/mongo"
	"github.com/KelvCodes/real-time-chat-app/internal/plugins/postgres"
	redisPlugin "github.com/KelvCodes/real-time-chat-app/internal/plugins/redis"
)

type storage struct {
	users    domain.UserRepository
	messages domain.MessageRepository
	tx       domain.Transactor
	close    func(context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case "mongo", "mongodb":
		client, db, err := mongoPlugin.New(ctx, *cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &storage{
			users:    mongoPlugin.NewUserRepository(db),
			messages: mongoPlugin.NewMessageRepo(db),
			tx:       mongoPlugin.TxManager{},
			close:    client.Disconnect,
		}, nil
	default:
		pdb, err := postgres.New(ctx, *cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pdb); err != nil {
			pdb.Close()
			return nil, err
		}
		return &storage{
			users:    postgres.NewUserRepository(pdb),
			messages: postgres.NewMessageRepo(pdb),
			tx:       postgres.NewTxManager(pdb),
			close:    func(context.Context) error { return pdb.Close() },
		}, nil
	}
}

var errMissingSecret = errors.New("JWT_SECRET is required")

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	err := run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("application stopped", "err", err)
		os.Exit(1)
	}
}

// run owns every resource it opens; all of them are released before it
// returns, whether startup failed or the process was asked to stop.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.SecretToken == "" {
		return errMissingSecret
	}

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry exporter", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage connection failed (driver %s): %w", cfg.Storage.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error("storage close failed", "err", err)
		}
	}()
	log.Info("storage connected", "driver", cfg.Storage.Driver)

	rdb, err := redisPlugin.NewRedisClient(ctx, *cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Adapters
	limiter := redisPlugin.NewRedisRateLimiter(rdb)
	revocations := redisPlugin.NewRedisTokenStore(rdb)
	cld, err := cloudinary.NewCloudinaryClient(*cfg.Cloudinary)
	if err != nil {
		return err
	}
	var images contracts.ImageStore
	if cld.Configured() {
		images = cld
	} else {
		log.Warn("cloudinary not configured, image uploads disabled")
	}

	// Core Services
	hub := registry.NewRegistry()
	presenceSvc := services.NewPresenceService(log, hub)
	routerSvc := services.NewMessageRouter(log, hub)
	managerSvc := services.NewManagerService(log, hub, presenceSvc)
	tokenSvc := services.NewTokenService(log, cfg.SecretToken, cfg.Auth.Issuer, cfg.Auth.TokenTTL, revocations)
	authSvc := services.NewAuthService(log, store.users, store.tx, images, cfg.Auth.BcryptCost)
	msgSvc := services.NewMessageService(log, store.users, store.messages, images, routerSvc, hub)

	// Server
	srv := server.NewServer(log, server.Options{
		Name:           cfg.Service.Name,
		Addr:           cfg.Service.Add,
		ClientURLs:     cfg.Service.ClientURLs,
		SecureCookie:   cfg.Service.IsProduction(),
		CookieName:     cfg.Auth.CookieName,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
		TrustedProxies: cfg.RateLimit.TrustedProxies,
		WS: handlers.WSOptions{
			SendBuffer: cfg.WebSocket.SendBuffer,
			Transport: ws.Options{
				WriteTimeout: cfg.WebSocket.WriteTimeout,
				PongWait:     cfg.WebSocket.PongWait,
				PingPeriod:   cfg.WebSocket.PingPeriod,
				ReadLimit:    cfg.WebSocket.ReadLimit,
			},
		},
	}, server.Deps{
		Auth:     authSvc,
		Tokens:   tokenSvc,
		Messages: msgSvc,
		Manager:  managerSvc,
		Limiter:  limiter,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			serveErr = fmt.Errorf("server stopped: %w", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	managerSvc.Shutdown(shutdownCtx)
	hub.Close()
	log.Info("shutdown complete")
	return serveErr
}
