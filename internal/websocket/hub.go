package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"mongosuite/internal/infrastructure"
)

// TypeProgress is the envelope type for catalog progress events.
const TypeProgress = "progress"

// broadcastQueueSize bounds the pending-broadcast queue. Publishers never
// block on a full queue; the message is dropped instead.
const broadcastQueueSize = 256

// statsInterval is how often the hub logs its counters and samples the
// queue depth.
const statsInterval = 30 * time.Second

// envelope is the wire format of every frame the hub sends.
type envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// HubStats is a point-in-time snapshot of the hub's counters.
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	DroppedMessages  int64 `json:"dropped_messages"`
}

// Hub fans progress events out to every connected client. The run loop is
// the only goroutine that mutates the client set or closes a client's send
// channel; registration, removal and broadcasts all flow through its
// channels.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger *slog.Logger

	pongWait   time.Duration
	pingPeriod time.Duration

	totalConnections int64
	messagesSent     int64
	droppedMessages  int64
}

// NewHub creates a hub with default keepalive deadlines.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
	}
}

// ConfigureTimeouts overrides the client keepalive deadlines. Must be called
// before clients connect. The ping period has to stay below the pong wait or
// the peer would be declared dead before its next ping.
func (h *Hub) ConfigureTimeouts(pongWait, pingPeriod time.Duration) {
	if pongWait > 0 {
		h.pongWait = pongWait
	}
	if pingPeriod > 0 && pingPeriod < h.pongWait {
		h.pingPeriod = pingPeriod
	}
}

// Start launches the run loop. Calling it again on a running hub is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop shuts the hub down and disconnects every client. It returns once the
// run loop has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("hub stopped")
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		case <-ticker.C:
			h.logStats()
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.totalConnections++
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.ctx()
	h.logger.InfoContext(ctx, "client joined",
		slog.Int("clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	metrics().RecordConnect(ctx)
	metrics().RecordClients(ctx, int64(count))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.ctx()
	h.logger.InfoContext(ctx, "client left",
		slog.Int("clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connected_for", time.Since(client.connectedAt)))

	metrics().RecordDisconnect(ctx, time.Since(client.connectedAt))
	metrics().RecordClients(ctx, int64(count))
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		select {
		case client.send <- message:
			delivered++
		default:
			// The client is not draining its buffer. Cut it loose rather
			// than let one slow consumer stall the stream.
			h.evict(client)
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(delivered)
	h.mu.Unlock()

	if delivered < len(targets) {
		h.logger.Warn("broadcast skipped slow clients",
			slog.Int("delivered", delivered),
			slog.Int("targets", len(targets)))
	}
	metrics().RecordBroadcast(context.Background())
}

func (h *Hub) evict(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.mu.Unlock()

	ctx := client.ctx()
	h.logger.WarnContext(ctx, "evicting slow client",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	metrics().RecordDrop(ctx, "slow_client")
	metrics().RecordDisconnect(ctx, time.Since(client.connectedAt))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) logStats() {
	stats := h.Stats()
	depth := len(h.broadcast)

	metrics().RecordQueueDepth(context.Background(), int64(depth))

	h.logger.Info("hub stats",
		slog.Int("clients", stats.ActiveClients),
		slog.Int64("total_connections", stats.TotalConnections),
		slog.Int64("messages_sent", stats.MessagesSent),
		slog.Int64("dropped_messages", stats.DroppedMessages),
		slog.Int("queue_depth", depth))
}

// Register hands a freshly upgraded client to the hub. The caller starts the
// client's pumps itself.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// BroadcastProgress queues a progress event for delivery to every connected
// client. Delivery is best effort: neither absent clients nor a full queue
// block the caller.
func (h *Hub) BroadcastProgress(event interface{}) {
	h.BroadcastProgressWithTrace(event, "")
}

// BroadcastProgressWithTrace is BroadcastProgress with the trace ID carried
// in the envelope, so clients can correlate events with the run that
// produced them.
func (h *Hub) BroadcastProgressWithTrace(event interface{}, traceID string) {
	payload, err := json.Marshal(envelope{
		Type:      TypeProgress,
		Data:      event,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
	if err != nil {
		h.logger.Error("progress event not serializable",
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.mu.Lock()
		h.droppedMessages++
		h.mu.Unlock()

		metrics().RecordDrop(context.Background(), "queue_full")
		h.logger.Warn("broadcast queue full, dropping event",
			slog.Int("queue_size", broadcastQueueSize))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of the hub's counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		ActiveClients:    len(h.clients),
		TotalConnections: h.totalConnections,
		MessagesSent:     h.messagesSent,
		DroppedMessages:  h.droppedMessages,
	}
}
