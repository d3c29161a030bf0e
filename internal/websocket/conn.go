package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the hub and client need.
// Production code wraps *websocket.Conn; tests substitute an in-memory fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// gorillaConn adapts *websocket.Conn to Conn. Everything is promoted from
// the embedded connection except RemoteAddr, which flattens the net.Addr.
type gorillaConn struct {
	*websocket.Conn
}

func (g gorillaConn) RemoteAddr() string {
	if addr := g.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
