package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newFeedServer upgrades incoming connections, consumes the subscribe frame,
// then hands the connection to the scripted handler.
func newFeedServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]any
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe frame: %v", err)
			return
		}
		if sub["op"] != "subscribe" {
			t.Errorf("first frame op = %v, want subscribe", sub["op"])
		}
		handler(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketDeliversTrades(t *testing.T) {
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		msg := `{"topic":"trades","data":[
			{"pair":"WETH-USDC","price":"3000.5","size":"0.25","side":"buy","trade_id":"t1","ts":1700000000000},
			{"pair":"WETH-USDC","price":"3001","size":"0.1","side":"sell","trade_id":"t2","ts":1700000000500}
		]}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
		// Stay connected until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	src := NewWebsocketSource(WebsocketConfig{Venue: "uniswap", URL: wsURL(srv), Pairs: []string{"WETH-USDC"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ev1, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev1.TradeID != "t1" || ev1.Price != 3000.5 || ev1.Venue != "uniswap" {
		t.Errorf("unexpected first event %+v", ev1)
	}

	// One message carried two trades; the second is buffered.
	ev2, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev2.TradeID != "t2" || ev2.Side != "sell" {
		t.Errorf("unexpected second event %+v", ev2)
	}
}

func TestCancelUnblocksIdleRead(t *testing.T) {
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		// Open but silent: no frames until the client disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	src := NewWebsocketSource(WebsocketConfig{Venue: "uniswap", URL: wsURL(srv), Pairs: []string{"WETH-USDC"}})
	ctx, cancel := context.WithCancel(context.Background())

	s, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Next returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next still blocked after cancel: shutdown would hang on an idle stream")
	}
}

func TestCloseStopsWatchdog(t *testing.T) {
	srv := newFeedServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	src := NewWebsocketSource(WebsocketConfig{Venue: "uniswap", URL: wsURL(srv), Pairs: []string{"WETH-USDC"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Closing twice must be safe: the controller closes after consume, and
	// the watchdog may race it on cancellation.
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	ev, err := s.Next(ctx)
	if err == nil {
		t.Errorf("Next on closed stream returned %+v, want error", ev)
	}
}
