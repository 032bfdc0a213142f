package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
)

// BoardFetcher fetches the full authoritative snapshot of a board. It is the
// same endpoint the initial load uses; the session calls it again after every
// reconnect because missed events are never replayed.
type BoardFetcher interface {
	FetchBoard(ctx context.Context, boardID uuid.UUID) (*domain.Board, error)
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// URL is the websocket endpoint of the relay.
	URL string
	// Token authenticates the handshake.
	Token string
	// UserID is the local user; events it originated are suppressed.
	UserID uuid.UUID
	// Codec is the structural-event framing, matching the deployment flag.
	Codec event.Codec
	// Fetcher loads full board snapshots for initial load and resync.
	Fetcher BoardFetcher

	// CursorInterval throttles outbound cursor reports; zero selects the
	// default.
	CursorInterval time.Duration

	// OnBoard observes every new snapshot. OnStatus observes connection
	// state.
	OnBoard  func(*domain.Board)
	OnStatus func(Status)

	HTTPClient     *http.Client
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Dial overrides the websocket dialer, for tests.
	Dial DialFunc
}

// Session wires the connection, codec, presence tracker and reconciler into
// the client-side sync layer for one viewed board at a time. The connection
// handle is owned here and passed by reference to the parts that need it;
// there is no package-global socket.
type Session struct {
	cfg      SessionConfig
	conn     *Conn
	rec      *Reconciler
	presence *Tracker

	mu           sync.Mutex
	board        uuid.UUID
	runCtx       context.Context
	resyncCancel context.CancelFunc
}

// NewSession creates a session. Call Open to start connecting.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Codec == nil {
		cfg.Codec = event.JSONCodec{}
	}

	s := &Session{cfg: cfg}
	s.rec = NewReconciler(cfg.UserID, cfg.OnBoard)
	s.presence = NewTracker(cfg.UserID, cfg.CursorInterval, s.emitIntent)
	s.conn = NewConn(ConnConfig{
		URL:            cfg.URL,
		Token:          cfg.Token,
		HTTPClient:     cfg.HTTPClient,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		OnStatus:       cfg.OnStatus,
		OnFrame:        s.handleFrame,
		OnConnected:    s.handleConnected,
		Dial:           cfg.Dial,
	})
	return s
}

// Open starts the push-channel connection.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()
	return s.conn.Open(ctx)
}

// Close leaves any joined room and tears down the connection. When it
// returns, no handler for this session will run again.
func (s *Session) Close() error {
	s.mu.Lock()
	s.board = uuid.Nil
	if s.resyncCancel != nil {
		s.resyncCancel()
		s.resyncCancel = nil
	}
	s.mu.Unlock()

	s.rec.AbortResync()
	return s.conn.Close()
}

// JoinBoard switches the session to a board: joins its room, resets
// presence, and starts the initial snapshot fetch. Rejoining the current
// board is harmless.
func (s *Session) JoinBoard(ctx context.Context, boardID uuid.UUID) error {
	s.mu.Lock()
	s.board = boardID
	s.mu.Unlock()

	s.presence.Reset()
	if err := s.conn.JoinBoard(ctx, boardID); err != nil {
		return err
	}
	s.startResync(boardID)
	return nil
}

// LeaveBoard leaves the board's room. Dispatch for the room stops before this
// returns: any event arriving afterwards is discarded by the room filter.
func (s *Session) LeaveBoard(ctx context.Context, boardID uuid.UUID) error {
	s.mu.Lock()
	left := s.board == boardID
	if left {
		s.board = uuid.Nil
		if s.resyncCancel != nil {
			s.resyncCancel()
			s.resyncCancel = nil
		}
	}
	s.mu.Unlock()

	if left {
		s.rec.AbortResync()
	}
	s.presence.Reset()
	return s.conn.LeaveBoard(ctx, boardID)
}

// Snapshot returns the current board snapshot, nil before the first fetch
// completes.
func (s *Session) Snapshot() *domain.Board { return s.rec.Snapshot() }

// Others returns the other participants of the joined room.
func (s *Session) Others() []domain.Presence { return s.presence.Others() }

// Status returns the connection status.
func (s *Session) Status() Status { return s.conn.Status() }

// Syncing reports whether a snapshot fetch is in flight; the UI should
// present the board as stale until it completes.
func (s *Session) Syncing() bool { return s.rec.Resyncing() }

// MoveCursor reports the local cursor position, throttled.
func (s *Session) MoveCursor(x, y float64) {
	if board := s.currentBoard(); board != uuid.Nil {
		s.presence.ReportCursor(board, x, y)
	}
}

// StartDrag reports the start of a drag gesture, unthrottled.
func (s *Session) StartDrag(itemType domain.DragItemType, itemID uuid.UUID) {
	if board := s.currentBoard(); board != uuid.Nil {
		_ = s.presence.ReportDragStart(board, itemType, itemID)
	}
}

// EndDrag reports the end of a drag gesture.
func (s *Session) EndDrag() {
	if board := s.currentBoard(); board != uuid.Nil {
		_ = s.presence.ReportDragEnd(board)
	}
}

func (s *Session) currentBoard() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) emitIntent(intent event.Intent) error {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.conn.SendIntent(ctx, intent)
}

// handleConnected runs after every completed handshake. A resumed connection
// means events were lost while disconnected: the snapshot is stale until a
// full refetch replaces it.
func (s *Session) handleConnected(resumed bool) {
	if !resumed {
		return
	}
	if board := s.currentBoard(); board != uuid.Nil {
		s.presence.Reset()
		s.startResync(board)
	}
}

// startResync begins a full snapshot fetch for the board. Structural events
// arriving while the fetch is in flight are dropped: they would mutate a
// snapshot that is about to be replaced. The fetch is retried with backoff
// until it succeeds, the room changes, or the session closes.
func (s *Session) startResync(boardID uuid.UUID) {
	s.mu.Lock()
	if s.resyncCancel != nil {
		s.resyncCancel()
	}
	base := s.runCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	s.resyncCancel = cancel
	s.mu.Unlock()

	s.rec.BeginResync()

	go func() {
		defer cancel()

		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0

		var board *domain.Board
		op := func() error {
			var err error
			board, err = s.cfg.Fetcher.FetchBoard(ctx, boardID)
			return err
		}
		if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
			log.Debug().Err(err).Stringer("board_id", boardID).Msg("board resync abandoned")
			return
		}

		// The room may have changed while the fetch was in flight.
		if s.currentBoard() != boardID {
			return
		}
		s.rec.CompleteResync(board)
	}()
}

// handleFrame routes one inbound frame. Runs on the connection's read
// goroutine: frames are handled in arrival order, to completion.
func (s *Session) handleFrame(typ websocket.MessageType, data []byte) {
	codec := s.cfg.Codec

	if typ == websocket.MessageBinary {
		if codec.MessageType() != websocket.MessageBinary {
			log.Debug().Msg("unexpected binary frame on text-framed channel")
			return
		}
		s.handleStructural(codec, data)
		return
	}

	// Text frames carry presence/control always, and structural events when
	// the deployment is text-framed. The type tag disambiguates.
	msgType, err := event.PeekType(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping undecodable frame")
		return
	}
	if event.IsKnownKind(msgType) {
		s.handleStructural(event.JSONCodec{}, data)
		return
	}

	msg, err := event.DecodePresence(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping undecodable presence message")
		return
	}
	if msg.BoardID != s.currentBoard() {
		return
	}
	s.presence.Handle(msg)
}

func (s *Session) handleStructural(codec event.Codec, data []byte) {
	ev, err := codec.Decode(data)
	if err != nil {
		// Malformed events are dropped; the connection stays up.
		log.Debug().Err(err).Msg("dropping undecodable structural event")
		return
	}

	// Room filter: events for a board no longer viewed never touch the
	// snapshot.
	if ev.BoardID != s.currentBoard() {
		return
	}
	s.rec.Apply(ev)
}
