package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// WebsocketConfig describes a venue trade feed.
type WebsocketConfig struct {
	Venue            string        `yaml:"venue"`
	URL              string        `yaml:"url"`
	Pairs            []string      `yaml:"pairs"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// WebsocketSource opens websocket sessions against a venue trade feed.
type WebsocketSource struct {
	cfg WebsocketConfig
}

// NewWebsocketSource creates a source for the configured feed.
func NewWebsocketSource(cfg WebsocketConfig) *WebsocketSource {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &WebsocketSource{cfg: cfg}
}

func (w *WebsocketSource) Name() string { return w.cfg.Venue }

// Open dials the feed and subscribes to the configured pairs.
func (w *WebsocketSource) Open(ctx context.Context) (EventStream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: w.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}

	subscribeMsg := map[string]any{
		"op":   "subscribe",
		"args": w.cfg.Pairs,
	}
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send subscription message: %w", err)
	}

	s := &wsStream{venue: w.cfg.Venue, conn: conn, done: make(chan struct{})}
	// A blocked ReadMessage only returns when the connection dies, so the
	// watchdog closes it on cancellation to keep shutdown prompt even on an
	// idle feed.
	go s.watch(ctx)
	return s, nil
}

// wsTradeMessage is the feed's trade payload.
type wsTradeMessage struct {
	Topic string `json:"topic"`
	Data  []struct {
		Pair      string `json:"pair"`
		Price     string `json:"price"`
		Size      string `json:"size"`
		Side      string `json:"side"`
		TradeID   string `json:"trade_id"`
		TradeTime int64  `json:"ts"`
	} `json:"data"`
}

type wsStream struct {
	venue   string
	conn    *websocket.Conn
	pending []domain.MarketEvent

	closeOnce sync.Once
	done      chan struct{}
}

// watch tears the connection down when the session context is cancelled,
// unblocking any in-flight read. Exits once the stream is closed normally.
func (s *wsStream) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.Close()
	case <-s.done:
	}
}

// Next returns the next trade event, skipping control frames and messages
// that do not parse as trades. One websocket message can carry several
// trades; surplus ones are buffered for the following calls.
func (s *wsStream) Next(ctx context.Context) (domain.MarketEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		if deadline, ok := ctx.Deadline(); ok {
			_ = s.conn.SetReadDeadline(deadline)
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return domain.MarketEvent{}, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return domain.MarketEvent{}, domain.ErrStreamClosed
			}
			return domain.MarketEvent{}, err
		}

		var msg wsTradeMessage
		if err := json.Unmarshal(message, &msg); err != nil || len(msg.Data) == 0 {
			continue
		}

		for _, trade := range msg.Data {
			price, err := strconv.ParseFloat(trade.Price, 64)
			if err != nil {
				continue
			}
			size, err := strconv.ParseFloat(trade.Size, 64)
			if err != nil {
				continue
			}
			s.pending = append(s.pending, domain.MarketEvent{
				Venue:     s.venue,
				Pair:      trade.Pair,
				Price:     price,
				Size:      size,
				Side:      trade.Side,
				TradeID:   trade.TradeID,
				Timestamp: time.Unix(0, trade.TradeTime*int64(time.Millisecond)),
			})
		}
	}
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
