package handlers

import (
	"context"
	"net/http"

	"github.com/KelvCodes/real-time-chat-app/internal/app/server/ws"
	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
	"github.com/KelvCodes/real-time-chat-app/pkg/middleware"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WSOptions configures upgraded connections.
type WSOptions struct {
	SendBuffer int
	Transport  ws.Options
}

type WSHandler struct {
	manager  services.IManagerService
	upgrader websocket.Upgrader
	opts     WSOptions
}

func NewWSHandler(manager services.IManagerService, origins *middleware.OriginPolicy, opts WSOptions) *WSHandler {
	return &WSHandler{
		manager: manager,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Allowed,
		},
	}
}

// Handler runs one connection from upgrade to cleanup. Inbound frames are
// drained only to notice closure and answer pings.
func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing user_id")
		writeMessage(w, http.StatusUnauthorized, "Unauthorized - No Token Provided")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.WarnContext(r.Context(), "ws handler - upgrade - ws upgrade failed", logging.Err(err))
		return
	}
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	defer cancel()

	socket := ws.NewWebSocket(ctx, log, conn, s.opts.Transport)
	client := ws.NewClient(ctx, socket, userID, s.opts.SendBuffer)

	s.manager.HandleConnect(ctx, userID, client)
	log.InfoContext(ctx, "ws handler - ws connection established", logging.User(userID))
	defer func() {
		client.Close()
		s.manager.HandleDisconnect(ctx, userID, client)
		log.InfoContext(ctx, "ws handler - ws connection closed", logging.User(userID))
	}()

	socket.ReadLoop(func([]byte) {})
}
