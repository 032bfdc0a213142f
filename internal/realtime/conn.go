package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowdeck/flowdeck/internal/event"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
)

// DialFunc opens one websocket connection. Injectable for tests.
type DialFunc func(ctx context.Context) (*websocket.Conn, error)

// ConnConfig configures a Conn.
type ConnConfig struct {
	// URL is the websocket endpoint, e.g. wss://host/ws/boards.
	URL string
	// Token is sent as a bearer credential during the handshake.
	Token string
	// HTTPClient is used for the handshake when set.
	HTTPClient *http.Client

	// InitialBackoff and MaxBackoff bound the reconnect schedule. Retries
	// continue indefinitely while the connection is open.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnStatus observes every state transition.
	OnStatus func(Status)
	// OnFrame receives inbound frames in arrival order, on the single read
	// goroutine. Handlers run to completion before the next frame.
	OnFrame func(typ websocket.MessageType, data []byte)
	// OnConnected fires after each completed handshake. resumed is true when
	// the connection recovered from a drop, which is the caller's signal that
	// the local snapshot may be stale and a full refetch is required.
	OnConnected func(resumed bool)

	// Dial overrides the websocket dialer. Tests use this.
	Dial DialFunc
}

// Conn owns exactly one logical push-channel connection and its lifecycle:
// connect, authenticate, read, reconnect with capped exponential backoff. At
// most one connect attempt is ever in flight. A Conn is joined to at most one
// board room at a time.
type Conn struct {
	cfg ConnConfig

	mu     sync.Mutex
	state  State
	ws     *websocket.Conn
	board  uuid.UUID
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConn creates an unopened connection.
func NewConn(cfg ConnConfig) *Conn {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	c := &Conn{cfg: cfg, state: StateDisconnected, done: make(chan struct{})}
	if c.cfg.Dial == nil {
		c.cfg.Dial = c.dial
	}
	return c
}

// Open starts the connection loop. It returns immediately; progress is
// reported through OnStatus.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("realtime: connection already open")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Close tears the connection down. When it returns, no further frame or
// status callbacks will run.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "client closed")
	}
	if cancel != nil {
		cancel()
		<-c.done
	}
	return nil
}

// Status returns the current connection status.
func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state}
}

// JoinBoard joins the board's room, leaving the previously joined room first.
// Idempotent: rejoining the current room is a no-op. When the connection is
// down the join is replayed on the next successful handshake.
func (c *Conn) JoinBoard(ctx context.Context, boardID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.board
	c.board = boardID
	ws := c.ws
	c.mu.Unlock()

	if ws == nil || prev == boardID {
		return nil
	}
	if prev != uuid.Nil {
		if err := c.writeJSON(ctx, ws, event.Intent{Type: event.IntentLeave, BoardID: prev}); err != nil {
			return fmt.Errorf("realtime.Conn.JoinBoard: leave previous: %w", err)
		}
	}
	if err := c.writeJSON(ctx, ws, event.Intent{Type: event.IntentJoin, BoardID: boardID}); err != nil {
		return fmt.Errorf("realtime.Conn.JoinBoard: %w", err)
	}
	return nil
}

// LeaveBoard leaves the board's room. Leaving a room that is not joined is a
// no-op.
func (c *Conn) LeaveBoard(ctx context.Context, boardID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	joined := c.board == boardID
	if joined {
		c.board = uuid.Nil
	}
	ws := c.ws
	c.mu.Unlock()

	if !joined || ws == nil {
		return nil
	}
	if err := c.writeJSON(ctx, ws, event.Intent{Type: event.IntentLeave, BoardID: boardID}); err != nil {
		return fmt.Errorf("realtime.Conn.LeaveBoard: %w", err)
	}
	return nil
}

// Board returns the currently joined room, uuid.Nil when none.
func (c *Conn) Board() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// SendIntent sends a presence intent to the server. Intents are ephemeral:
// when the connection is down the intent is dropped silently.
func (c *Conn) SendIntent(ctx context.Context, intent event.Intent) error {
	c.mu.Lock()
	ws := c.ws
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if ws == nil {
		return nil
	}
	if err := c.writeJSON(ctx, ws, intent); err != nil {
		return fmt.Errorf("realtime.Conn.SendIntent: %w", err)
	}
	return nil
}

func (c *Conn) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := event.EncodeJSON(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

// dial is the production dialer. A 401/403 handshake response is an auth
// failure, fatal for the session.
func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	opts := &websocket.DialOptions{
		HTTPClient: c.cfg.HTTPClient,
		HTTPHeader: http.Header{},
	}
	if c.cfg.Token != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	ws, resp, err := websocket.Dial(ctx, c.cfg.URL, opts)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: handshake status %d", ErrAuthFailed, resp.StatusCode)
		}
		return nil, err
	}
	return ws, nil
}

// run is the single connect/read loop. It owns all state transitions.
func (c *Conn) run(ctx context.Context) {
	defer close(c.done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0 // retry indefinitely while open
	bo.Reset()

	resumed := false
	for {
		if resumed {
			c.setStatus(Status{State: StateReconnecting})
		} else {
			c.setStatus(Status{State: StateConnecting})
		}

		ws, err := c.cfg.Dial(ctx)
		if err != nil {
			if errors.Is(err, ErrAuthFailed) {
				c.setStatus(Status{State: StateDisconnected, Err: err})
				return
			}
			if ctx.Err() != nil {
				c.setStatus(Status{State: StateDisconnected})
				return
			}

			wait := bo.NextBackOff()
			log.Debug().Err(err).Dur("retry_in", wait).Msg("push channel connect failed")
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				c.setStatus(Status{State: StateDisconnected})
				return
			}
		}

		bo.Reset()

		c.mu.Lock()
		c.ws = ws
		board := c.board
		c.mu.Unlock()

		c.setStatus(Status{State: StateConnected})

		// Replay room membership before anything else so the server starts
		// forwarding room traffic for this connection.
		if board != uuid.Nil {
			if err := c.writeJSON(ctx, ws, event.Intent{Type: event.IntentJoin, BoardID: board}); err != nil {
				log.Debug().Err(err).Msg("room rejoin failed")
			}
		}
		if c.cfg.OnConnected != nil {
			c.cfg.OnConnected(resumed)
		}

		err = c.readLoop(ctx, ws)

		c.mu.Lock()
		c.ws = nil
		closed := c.closed
		c.mu.Unlock()

		if closed || ctx.Err() != nil {
			c.setStatus(Status{State: StateDisconnected})
			return
		}

		log.Debug().Err(err).Msg("push channel dropped, reconnecting")
		resumed = true
	}
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		if c.cfg.OnFrame != nil {
			c.cfg.OnFrame(typ, data)
		}
	}
}

func (c *Conn) setStatus(st Status) {
	c.mu.Lock()
	c.state = st.State
	c.mu.Unlock()

	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(st)
	}
}
