package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mongosuite/internal/infrastructure"
)

const (
	// writeWait is how long a single frame write may take.
	writeWait = 10 * time.Second

	// defaultPongWait is how long the peer has to answer a ping.
	defaultPongWait = 60 * time.Second

	// defaultPingPeriod must stay below the pong wait so the next ping is on
	// the wire before the read deadline fires.
	defaultPingPeriod = (defaultPongWait * 9) / 10

	// maxMessageSize caps inbound frames. Clients are consumers of the
	// stream; anything larger than a keepalive is a misbehaving peer.
	maxMessageSize = 512

	// sendBufferSize is the per-client outbound queue. A client that falls
	// this far behind gets evicted by the hub.
	sendBufferSize = 256
)

// Client pairs one websocket connection with its read and write pumps.
type Client struct {
	hub  *Hub
	conn Conn
	send chan []byte

	pongWait   time.Duration
	pingPeriod time.Duration

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	sent      int64
	sentBytes int64
}

// NewClient wraps an upgraded connection for the given hub.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return newClient(hub, gorillaConn{conn}, logger)
}

// NewClientWithTrace is NewClient with the originating request's trace ID
// attached, so the client's log lines and envelopes stay correlated with the
// upgrade request.
func NewClientWithTrace(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) *Client {
	client := NewClient(hub, conn, logger)
	client.traceID = traceID
	client.logger = client.logger.With(slog.String("trace_id", traceID))
	return client
}

func newClient(hub *Hub, conn Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		pongWait:    hub.pongWait,
		pingPeriod:  hub.pingPeriod,
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id)),
	}
}

// ctx returns a background context carrying the client's trace ID, keeping
// log lines and metrics emitted outside the request path correlated.
func (c *Client) ctx() context.Context {
	if c.traceID == "" {
		return context.Background()
	}
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// ReadPump owns reads on the connection. The stream is one way: reading only
// services the keepalive protocol and notices closed peers, inbound payloads
// are discarded. It unregisters the client when the connection dies.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
		c.logger.InfoContext(c.ctx(), "read pump stopped",
			slog.Duration("connected_for", time.Since(c.connectedAt)))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.ctx(), "unexpected close",
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump owns writes on the connection: queued frames, the periodic ping,
// and the close frame once the hub shuts the send channel.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.ctx(), "write pump stopped",
			slog.Int64("messages_sent", c.sent),
			slog.Int64("bytes_sent", c.sentBytes))
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.writeFrame(message); err != nil {
				return
			}
			// Drain whatever queued up while the last frame was in flight.
			for n := len(c.send); n > 0; n-- {
				message, ok := <-c.send
				if !ok {
					c.writeClose()
					return
				}
				if err := c.writeFrame(message); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx(), "ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Client) writeFrame(message []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.ErrorContext(c.ctx(), "write failed",
			slog.String("error", err.Error()))
		return err
	}

	c.sent++
	c.sentBytes += int64(len(message))
	metrics().RecordSend(c.ctx(), int64(len(message)))
	return nil
}

func (c *Client) writeClose() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
