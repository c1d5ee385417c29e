package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Options bound every transport operation on a connection.
type Options struct {
	WriteTimeout time.Duration
	PongWait     time.Duration
	PingPeriod   time.Duration
	ReadLimit    int64
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 512 * 1024
	}
	return o
}

type WebSocket struct {
	*websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	log    *slog.Logger
}

func NewWebSocket(parent context.Context, log *slog.Logger, conn *websocket.Conn, opts Options) *WebSocket {
	ctx, cancel := context.WithCancel(parent)
	return &WebSocket{Conn: conn, ctx: ctx, cancel: cancel, opts: opts.withDefaults(), log: log}
}

// Done is closed once the socket has been closed from either side.
func (w *WebSocket) Done() <-chan struct{} {
	return w.ctx.Done()
}

func (w *WebSocket) WriteMessage(data []byte) error {
	w.Conn.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout))
	return w.Conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WebSocket) WritePing() error {
	return w.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.opts.WriteTimeout))
}

// ReadLoop blocks until the peer goes away, the pong deadline passes, or
// Close is called. Every exit path closes the socket.
func (w *WebSocket) ReadLoop(onMsg func([]byte)) {
	defer w.Close()

	// Protects against memory exhaustion
	w.Conn.SetReadLimit(w.opts.ReadLimit)
	w.Conn.SetReadDeadline(time.Now().Add(w.opts.PongWait))
	w.Conn.SetPongHandler(func(string) error {
		return w.Conn.SetReadDeadline(time.Now().Add(w.opts.PongWait))
	})

	for {
		_, data, err := w.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				w.log.Debug("ws - read loop - unexpected close", "err", err)
			}
			return
		}
		if len(data) > 0 {
			onMsg(data)
		}
	}
}

func (w *WebSocket) Close() {
	w.cancel()
	_ = w.Conn.Close()
}
