// Package ws is the live ingestion adapter. It connects to a Finnhub-style
// trade websocket, subscribes to one symbol and appends every trade as a
// degenerate bar under a single caller-chosen period.
//
// Wire format:
//
//	-> {"type":"subscribe","symbol":"AUDUSD"}
//	<- {"type":"trade","data":[{"s":"AUDUSD","p":0.6612,"v":100,"t":1700000000000}]}
//
// Other message types (e.g. "ping") are ignored. The adapter never retries:
// a failed dial or a dropped connection returns model.ErrSourceUnavailable
// and reconnect policy is left to the caller.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/fastjson"

	"barfeed/internal/model"
)

// DefaultURL is the production feed endpoint.
const DefaultURL = "wss://ws.finnhub.io"

// Config holds configuration for the live adapter.
type Config struct {
	// URL of the trade websocket, e.g. "wss://ws.finnhub.io" or "ws://localhost:9001/ws".
	URL string

	// APIKey is sent as the "token" query parameter when set.
	APIKey string

	Symbol string
	Period model.Period

	// HandshakeTimeout defaults to 10 seconds if zero.
	HandshakeTimeout time.Duration
}

func (c *Config) defaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// Adapter streams trades from one connection into a sink.
type Adapter struct {
	cfg Config
	url string

	// Optional hooks
	OnConnect    func()
	OnDisconnect func(err error)
	OnMalformed  func(err error)
	OnTrade      func(t Trade)

	log *slog.Logger
}

// New validates cfg and creates an Adapter.
func New(cfg Config) (*Adapter, error) {
	cfg.defaults()
	if !cfg.Period.Valid() {
		return nil, fmt.Errorf("ws: %q: %w", cfg.Period, model.ErrInvalidPeriod)
	}
	if cfg.Symbol == "" {
		return nil, errors.New("ws: symbol is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse url: %w", err)
	}
	if cfg.APIKey != "" {
		q := u.Query()
		q.Set("token", cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return &Adapter{
		cfg: cfg,
		url: u.String(),
		log: slog.With("component", "ws", "symbol", cfg.Symbol, "period", cfg.Period),
	}, nil
}

// Run dials, subscribes and appends trades until the connection drops or ctx
// is cancelled. Cancellation closes the connection once the in-flight append
// has returned and Run returns nil.
func (a *Adapter) Run(ctx context.Context, sink model.BarSink) error {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: a.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ws: dial %s: %v: %w", a.cfg.URL, err, model.ErrSourceUnavailable)
	}
	defer conn.Close()

	if err := conn.WriteJSON(subscribeMsg{Type: "subscribe", Symbol: a.cfg.Symbol}); err != nil {
		return fmt.Errorf("ws: subscribe: %v: %w", err, model.ErrSourceUnavailable)
	}
	a.log.Info("connected", "url", a.cfg.URL)
	if a.OnConnect != nil {
		a.OnConnect()
	}

	// Closes the connection when ctx is cancelled, unblocking ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	var parser fastjson.Parser
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				a.log.Info("connection closed on shutdown")
				return nil
			}
			a.log.Warn("connection lost", "error", err)
			if a.OnDisconnect != nil {
				a.OnDisconnect(err)
			}
			return fmt.Errorf("ws: read: %v: %w", err, model.ErrSourceUnavailable)
		}

		msg, err := ParseMessage(&parser, raw)
		if err != nil {
			a.malformed(err)
			continue
		}
		if msg.Invalid > 0 {
			a.malformed(fmt.Errorf("ws: %d undecodable trade entries: %w", msg.Invalid, model.ErrMalformedRecord))
		}

		for _, t := range msg.Trades {
			if ctx.Err() != nil {
				return nil
			}
			if a.OnTrade != nil {
				a.OnTrade(t)
			}
			if err := sink.Append(ctx, a.cfg.Period, TradeBar(t)); err != nil {
				return err
			}
		}
	}
}

func (a *Adapter) malformed(err error) {
	a.log.Warn("skipping malformed message", "error", err)
	if a.OnMalformed != nil {
		a.OnMalformed(err)
	}
}
