package websocket

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. Outbound messages are queued on send
// and written by writeLoop; everything else runs on the read loop goroutine.
type Client struct {
	id     string
	userID string

	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	base   *slog.Logger
	logger atomic.Pointer[slog.Logger]
}

func newClient(logger *slog.Logger, id, userID string, conn *websocket.Conn, opts Options) *Client {
	limit := rate.Limit(opts.MessagesPerSecond)
	if opts.MessagesPerSecond <= 0 {
		limit = rate.Inf
	}

	client := &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		limiter: rate.NewLimiter(limit, opts.Burst),
		base:    logger,
	}
	client.setUser(userID)

	return client
}

// setUser binds userID to the connection; an empty id leaves it anonymous.
// Only the read loop calls it.
func (that *Client) setUser(userID string) {
	that.userID = userID

	logger := that.base.With("connection_id", that.id)
	if userID != "" {
		logger = logger.With("user_id", userID)
	}
	that.logger.Store(logger)
}

func (that *Client) log() *slog.Logger {
	return that.logger.Load()
}

func (that *Client) ID() string {
	return that.id
}

// enqueue never blocks; it reports false when the queue is full.
func (that *Client) enqueue(data []byte) bool {
	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.log().Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
