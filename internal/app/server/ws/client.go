package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("client send buffer full")
)

// RuntimeClient is the connection handle stored in the registry. Producers
// enqueue onto out; a single write loop owns the transport.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	userID string
	out    chan []byte
	once   sync.Once
}

var _ contracts.Client = (*RuntimeClient)(nil)

func NewClient(
	parent context.Context,
	ws *WebSocket,
	userID string,
	buffer int,
) *RuntimeClient {
	if buffer <= 0 {
		buffer = 256
	}
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		userID: userID,
		out:    make(chan []byte, buffer),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) UserID() string { return c.userID }

// Send never blocks. A full buffer means the peer is not keeping up; the
// connection is closed and follows the normal disconnect path.
func (c *RuntimeClient) Send(data []byte) error {
	if c.ctx.Err() != nil {
		return ErrClientClosed
	}
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
		c.Close()
		return ErrSlowConsumer
	}
}

// Close is idempotent. out is left open so a racing Send cannot panic.
func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	ticker := time.NewTicker(c.ws.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.ws.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				c.ws.log.Debug("ws - write loop - write failed", "user_id", c.userID, "err", err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WritePing(); err != nil {
				return
			}
		}
	}
}
