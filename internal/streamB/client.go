// Package streamB is the authenticated, single-channel stream client for
// venue B. It signs an RSA-PSS handshake, subscribes once to the
// venue-wide ticker channel, and routes inbound per-market updates into a
// cache.B, deriving NO-bid/NO-ask from YES-ask/YES-bid (§4.3). The
// dial/ping/read-deadline skeleton and reconnect loop are shared in shape
// with internal/streamA; the ticker dispatch and Disabled terminal state
// are grounded on the Kalshi-style feed in this domain's reference
// examples (auth header injection on dial, ping/pong read-deadline reset).
package streamB

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arbmon/internal/cache"
	"arbmon/internal/obsv"
	"arbmon/internal/stream"
)

const (
	pingInterval = 30 * time.Second
	readDeadline = 60 * time.Second
	writeTimeout = 10 * time.Second
	dialTimeout  = 10 * time.Second
	backoffStart = 2 * time.Second
	backoffMax   = 60 * time.Second
)

// Client maintains the venue-B connection. A nil Auth (no key-id or key
// file at construction) makes the client permanently Disabled: Run
// returns immediately, and Lookup-equivalent callers (the engine) simply
// never find a record in the cache.
type Client struct {
	url    string
	auth   *Auth
	cache  *cache.B
	logger *slog.Logger

	state stream.StateHolder

	connMu sync.Mutex
	conn   *websocket.Conn

	updates chan Update
}

// New creates a venue-B stream client. auth may be nil, meaning Disabled.
func New(url string, auth *Auth, c *cache.B, logger *slog.Logger) *Client {
	return &Client{
		url:     url,
		auth:    auth,
		cache:   c,
		logger:  logger.With("component", "streamB"),
		updates: make(chan Update, updateChanCap),
	}
}

// Disabled reports whether this client has no credentials and will never
// connect.
func (c *Client) Disabled() bool { return c.auth == nil }

// State returns the client's current connection state.
func (c *Client) State() stream.State { return c.state.Get() }

// Updates exposes the bounded notification channel for downstream
// consumers. See internal/streamA.Client.Updates for the drop discipline.
func (c *Client) Updates() <-chan Update { return c.updates }

func (c *Client) notify(key string) {
	select {
	case c.updates <- Update{Key: key, At: time.Now()}:
	default:
		obsv.StreamBackpressureDrops.WithLabelValues("kalshi").Inc()
	}
}

// Run drives the connection state machine until ctx is cancelled. If the
// client is Disabled, Run is a no-op (§4.3).
func (c *Client) Run(ctx context.Context) {
	if c.Disabled() {
		c.state.Set(stream.Terminated)
		c.logger.Info("venue B disabled: no key-id or private key configured")
		return
	}

	c.state.Set(stream.Idle)
	backoff := time.Duration(0)

	for {
		if ctx.Err() != nil {
			c.state.Set(stream.Terminated)
			obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Terminated))
			return
		}

		c.state.Set(stream.Dialing)
		obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Dialing))
		obsv.StreamReconnectsTotal.WithLabelValues("kalshi").Inc()

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn("dial failed", "error", err)
			obsv.StreamErrors.WithLabelValues("kalshi", "transient").Inc()
			c.state.Set(stream.Backoff)
			obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Backoff))
			backoff = stream.NextBackoff(backoff, backoffStart, backoffMax)
			if !c.sleepOrCancel(ctx, backoff) {
				c.state.Set(stream.Terminated)
				return
			}
			continue
		}

		c.state.Set(stream.Subscribing)
		obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Subscribing))
		if err := c.subscribe(conn); err != nil {
			c.logger.Warn("subscribe failed", "error", err)
			obsv.StreamErrors.WithLabelValues("kalshi", "transient").Inc()
			conn.Close()
			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			c.state.Set(stream.Closing)
			obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Closing))
			c.state.Set(stream.Backoff)
			obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Backoff))
			backoff = stream.NextBackoff(backoff, backoffStart, backoffMax)
			if !c.sleepOrCancel(ctx, backoff) {
				c.state.Set(stream.Terminated)
				return
			}
			continue
		}

		c.state.Set(stream.Reading)
		obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Reading))
		backoff = 0

		readErr := c.readLoop(ctx, conn)
		conn.Close()
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		c.state.Set(stream.Closing)
		obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Closing))

		if ctx.Err() != nil {
			c.state.Set(stream.Terminated)
			return
		}
		if readErr != nil {
			c.logger.Warn("read loop exited, reconnecting", "error", readErr)
		}

		c.state.Set(stream.Backoff)
		obsv.StreamState.WithLabelValues("kalshi").Set(float64(stream.Backoff))
		backoff = stream.NextBackoff(backoff, backoffStart, backoffMax)
		if !c.sleepOrCancel(ctx, backoff) {
			c.state.Set(stream.Terminated)
			return
		}
	}
}

func (c *Client) sleepOrCancel(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	headers, err := c.auth.Headers()
	if err != nil {
		return nil, fmt.Errorf("sign handshake: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, headers)
	if err != nil {
		if resp != nil && resp.StatusCode != 101 {
			return nil, fmt.Errorf("handshake rejected, status=%d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return conn, nil
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(subscribeMsg{Type: "subscribe", Channel: "ticker"})
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			obsv.StreamErrors.WithLabelValues("kalshi", readErrorKind(err)).Inc()
			return fmt.Errorf("read: %w", err)
		}

		c.dispatch(msg)
	}
}

// readErrorKind distinguishes a read-deadline stall from every other read
// error (reset, clean close, …), per §4.2: both transition to Backoff, but
// the counters must tell them apart for observability.
func readErrorKind(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "stall"
	}
	return "transient"
}

// pingLoop pings every pingInterval. It closes conn when a ping write fails
// or ctx is cancelled, so a blocked read returns at once and Run moves to
// Closing.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping write failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}

// dispatch decodes one ticker frame and applies it to the cache. A frame
// missing either YES side is treated as invalid and dropped rather than
// silently deriving a NO side of 1 (§9 Open Question 2).
func (c *Client) dispatch(data []byte) {
	var f tickerFrame
	if err := json.Unmarshal(data, &f); err != nil {
		obsv.StreamErrors.WithLabelValues("kalshi", "malformed").Inc()
		return
	}

	if f.Channel != "ticker" || f.Ticker == "" {
		return
	}
	if f.YesBid == nil || f.YesAsk == nil {
		obsv.StreamErrors.WithLabelValues("kalshi", "malformed").Inc()
		return
	}

	c.cache.Update(f.Ticker, cache.PriceB{
		YesBid: *f.YesBid,
		YesAsk: *f.YesAsk,
		NoBid:  1 - *f.YesAsk,
		NoAsk:  1 - *f.YesBid,
	})
	obsv.StreamFramesTotal.WithLabelValues("kalshi").Inc()
	c.notify(f.Ticker)
}
