package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
)

// DefaultCursorInterval is the minimum spacing between outbound cursor
// reports.
const DefaultCursorInterval = 50 * time.Millisecond

// Tracker maintains the set of other participants viewing the same board.
// Everything here is ephemeral: the map is rebuilt from scratch on every room
// (re)join and a participant disappears the moment their leave notification
// arrives.
type Tracker struct {
	mu         sync.Mutex
	self       uuid.UUID
	others     map[uuid.UUID]*domain.Presence
	interval   time.Duration
	lastCursor time.Time

	now  func() time.Time
	emit func(event.Intent) error
}

// NewTracker creates a tracker for the local user. emit sends an outbound
// intent to the joined room; interval <= 0 selects DefaultCursorInterval.
func NewTracker(self uuid.UUID, interval time.Duration, emit func(event.Intent) error) *Tracker {
	if interval <= 0 {
		interval = DefaultCursorInterval
	}
	return &Tracker{
		self:     self,
		others:   make(map[uuid.UUID]*domain.Presence),
		interval: interval,
		now:      time.Now,
		emit:     emit,
	}
}

// Reset drops all presence records. Called on every room join and rejoin.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.others = make(map[uuid.UUID]*domain.Presence)
	t.lastCursor = time.Time{}
}

// Others returns the other participants, ordered by user id for stable
// rendering. The local user is never included.
func (t *Tracker) Others() []domain.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Presence, 0, len(t.others))
	for _, p := range t.others {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}

// Handle applies one inbound presence notification.
func (t *Tracker) Handle(msg event.PresenceMessage) {
	if msg.UserID == t.self {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Type {
	case event.PresenceUserLeft:
		delete(t.others, msg.UserID)
		return
	case event.PresenceUserJoined, event.PresenceCursorMoved,
		event.PresenceDragStarted, event.PresenceDragEnded, event.PresenceAudioLevel:
	default:
		return
	}

	p, ok := t.others[msg.UserID]
	if !ok {
		p = &domain.Presence{UserID: msg.UserID}
		t.others[msg.UserID] = p
	}
	if msg.Nickname != "" {
		p.Nickname = msg.Nickname
	}

	switch msg.Type {
	case event.PresenceCursorMoved:
		p.Cursor = msg.Cursor
	case event.PresenceDragStarted:
		p.Dragging = msg.Dragging
	case event.PresenceDragEnded:
		p.Dragging = nil
	case event.PresenceAudioLevel:
		p.AudioLevel = msg.AudioLevel
	}
}

// ReportCursor emits a cursor_move intent, throttled on the leading edge: the
// sample goes out immediately when the interval has elapsed since the last
// emission, otherwise it is dropped silently. Samples are never queued.
// Reports whether an emission happened.
func (t *Tracker) ReportCursor(boardID uuid.UUID, x, y float64) bool {
	t.mu.Lock()
	now := t.now()
	if now.Sub(t.lastCursor) < t.interval {
		t.mu.Unlock()
		return false
	}
	t.lastCursor = now
	emit := t.emit
	t.mu.Unlock()

	if emit == nil {
		return false
	}
	_ = emit(event.Intent{Type: event.IntentCursorMove, BoardID: boardID, X: &x, Y: &y})
	return true
}

// ReportDragStart emits an unthrottled drag_start, once per UI gesture.
func (t *Tracker) ReportDragStart(boardID uuid.UUID, itemType domain.DragItemType, itemID uuid.UUID) error {
	if t.emit == nil {
		return nil
	}
	return t.emit(event.Intent{Type: event.IntentDragStart, BoardID: boardID, ItemType: itemType, ItemID: &itemID})
}

// ReportDragEnd emits an unthrottled drag_end.
func (t *Tracker) ReportDragEnd(boardID uuid.UUID) error {
	if t.emit == nil {
		return nil
	}
	return t.emit(event.Intent{Type: event.IntentDragEnd, BoardID: boardID})
}
