package websocket

import (
	"errors"
	"sync"
	"time"
)

var errConnClosed = errors.New("use of closed connection")

// fakeFrame is one recorded or queued websocket frame.
type fakeFrame struct {
	kind int
	data []byte
}

// fakeConn is an in-memory Conn for pump tests. Reads block until a frame is
// queued or the connection closes, the way a network read would.
type fakeConn struct {
	inbound   chan fakeFrame
	closed    chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	written       []fakeFrame
	writeErr      error
	readLimit     int64
	readDeadline  time.Time
	writeDeadline time.Time
	pongHandler   func(string) error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan fakeFrame, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-f.closed:
		return errConnClosed
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, fakeFrame{kind: messageType, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-f.inbound:
		return frame.kind, frame.data, nil
	case <-f.closed:
		return 0, nil, errConnClosed
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readDeadline = t
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeDeadline = t
	return nil
}

func (f *fakeConn) SetReadLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readLimit = limit
}

func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongHandler = h
}

func (f *fakeConn) RemoteAddr() string {
	return "192.0.2.10:52801"
}

// queueRead makes the next ReadMessage return the given frame.
func (f *fakeConn) queueRead(kind int, data []byte) {
	f.inbound <- fakeFrame{kind: kind, data: data}
}

// frames returns a copy of everything written so far.
func (f *fakeConn) frames() []fakeFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeFrame, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeConn) frameKinds() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]int, 0, len(f.written))
	for _, frame := range f.written {
		kinds = append(kinds, frame.kind)
	}
	return kinds
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) getReadLimit() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLimit
}

func (f *fakeConn) getReadDeadline() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readDeadline
}

func (f *fakeConn) getPongHandler() func(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pongHandler
}

func (f *fakeConn) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}
