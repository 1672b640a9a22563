// Package ws bridges the engine's signal bus to WebSocket clients so UIs
// can react to sync cycles without polling.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbradar/arbradar/internal/domain"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = 54 * time.Second // must stay below pongTimeout
	readLimit    = 4096
	outboxSize   = 256
)

// forwardedChannels are the signal bus channels relayed to clients.
var forwardedChannels = []string{
	domain.ChannelSync,
	domain.ChannelOpportunities,
	domain.ChannelMarkets,
}

// Origin checks are handled by the CORS middleware in front of the mux.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub relays signal bus messages to connected WebSocket sessions. Each
// session holds its own channel subscription set; slow sessions have
// messages dropped rather than stalling the fan-out.
type Hub struct {
	bus    domain.SignalBus
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[*session]struct{}

	startedAt time.Time
}

// session is one WebSocket connection plus its subscription set.
type session struct {
	conn   *websocket.Conn
	outbox chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

// controlMsg is the JSON frame a client sends to manage subscriptions,
// e.g. {"action":"subscribe","channels":["opportunities"]}.
type controlMsg struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

// NewHub creates a WebSocket hub bridging the given SignalBus.
func NewHub(bus domain.SignalBus, logger *slog.Logger) *Hub {
	return &Hub{
		bus:       bus,
		logger:    logger,
		sessions:  make(map[*session]struct{}),
		startedAt: time.Now().UTC(),
	}
}

// Run subscribes to the bus channels and fans messages out to sessions
// until the context is cancelled. Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, ch := range forwardedChannels {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			h.relay(ctx, channel)
		}(ch)
	}
	wg.Wait()

	h.mu.Lock()
	for s := range h.sessions {
		close(s.outbox)
		delete(h.sessions, s)
	}
	h.mu.Unlock()

	return ctx.Err()
}

// relay forwards one bus channel to all subscribed sessions.
func (h *Hub) relay(ctx context.Context, channel string) {
	feed, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("ws: bus subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	h.logger.Info("ws: relaying channel", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-feed:
			if !ok {
				h.logger.Warn("ws: bus feed closed", slog.String("channel", channel))
				return
			}
			h.fanOut(channel, data)
		}
	}
}

// fanOut delivers one message to every session subscribed to the channel.
func (h *Hub) fanOut(channel string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if !s.subscribed(channel) {
			continue
		}
		select {
		case s.outbox <- data:
		default:
			h.logger.Warn("ws: dropping message for slow client")
		}
	}
}

// HandleWS upgrades the request and runs the session pumps.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := &session{
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		subs:   make(map[string]bool, len(forwardedChannels)),
	}
	for _, ch := range forwardedChannels {
		s.subs[ch] = true
	}

	h.attach(s)
	s.greet(h.startedAt)

	go s.writeLoop()
	go s.readLoop(h)
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.Info("ws: client connected", slog.Int("total_clients", n))
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.outbox)
	}
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.Info("ws: client disconnected", slog.Int("total_clients", n))
}

// readLoop consumes client frames, handling subscription control messages.
// Any read error tears the session down.
func (s *session) readLoop(h *Hub) {
	defer func() {
		h.detach(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(readLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws: unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		var ctl controlMsg
		if json.Unmarshal(frame, &ctl) == nil && ctl.Action != "" {
			s.applyControl(ctl)
		}
	}
}

func (s *session) applyControl(ctl controlMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range ctl.Channels {
		switch ctl.Action {
		case "subscribe":
			s.subs[ch] = true
		case "unsubscribe":
			delete(s.subs, ch)
		}
	}
}

func (s *session) subscribed(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subs[channel]
}

// greet pushes a small JSON envelope so clients can mark the connection
// healthy before the first cycle completes.
func (s *session) greet(startedAt time.Time) {
	uptime := max(int64(time.Since(startedAt).Seconds()), 0)
	msg, err := json.Marshal(map[string]any{
		"type": "connected",
		"payload": map[string]any{
			"uptime_seconds": uptime,
			"channels":       forwardedChannels,
		},
	})
	if err != nil {
		return
	}
	select {
	case s.outbox <- msg:
	default:
	}
}

// writeLoop drains the outbox onto the connection and keeps the session
// alive with ping frames.
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
