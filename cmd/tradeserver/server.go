package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"barfeed/internal/model"
)

type tradeEntry struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
	Time   int64   `json:"t"` // unix milliseconds
}

type tradeMsg struct {
	Type string       `json:"type"`
	Data []tradeEntry `json:"data"`
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	joined  chan struct{}
	once    sync.Once
}

func newHub() *hub {
	return &hub{
		clients: make(map[*websocket.Conn]chan []byte),
		joined:  make(chan struct{}),
	}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	h.once.Do(func() { close(h.joined) })
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client, drop trade
		}
	}
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ─── Server ──────────────────────────────────────────────────────────────────

type server struct {
	hub      *hub
	symbol   string
	bars     []model.Bar
	interval time.Duration
	loop     bool
	log      *slog.Logger
}

func newServer(symbol string, bars []model.Bar, interval time.Duration, loop bool) *server {
	return &server{
		hub:      newHub(),
		symbol:   symbol,
		bars:     bars,
		interval: interval,
		loop:     loop,
		log:      slog.With("component", "tradeserver"),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"tradeserver","clients":%d}`+"\n", s.hub.len())
	})
	return mux
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade error", "error", err)
		return
	}
	s.log.Info("client connected", "remote", r.RemoteAddr)

	ch := s.hub.register(conn)
	defer func() {
		s.hub.unregister(conn)
		conn.Close()
		s.log.Info("client disconnected", "remote", r.RemoteAddr)
	}()

	// Read pump: logs subscribe requests and notices closed connections.
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				s.hub.unregister(conn)
				return
			}
			s.log.Debug("client message", "remote", r.RemoteAddr, "msg", string(msg))
		}
	}()

	// Write pump.
	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// encode builds the trade message for bar. The bar timestamp is parsed as
// RFC 3339 or "2006-01-02 15:04"; anything else is stamped with now.
func (s *server) encode(b model.Bar, now time.Time) ([]byte, error) {
	ts := now
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, b.Timestamp); err == nil {
			ts = t
			break
		}
	}
	return json.Marshal(tradeMsg{
		Type: "trade",
		Data: []tradeEntry{{Symbol: s.symbol, Price: b.Close, Volume: b.Volume, Time: ts.UnixMilli()}},
	})
}

// run waits for the first client, then broadcasts one trade per interval
// until the bars run out (or forever with loop) or ctx is done.
func (s *server) run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-s.hub.joined:
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i == len(s.bars) {
			if !s.loop || len(s.bars) == 0 {
				s.log.Info("replay finished", "trades", i)
				return
			}
			i = 0
		}
		msg, err := s.encode(s.bars[i], time.Now())
		if err != nil {
			s.log.Warn("skipping bar", "ts", s.bars[i].Timestamp, "error", err)
		} else {
			s.hub.broadcast(msg)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
