package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
)

// Reconciler applies inbound structural events to the cached board snapshot.
// The snapshot is replaced wholesale on every mutation: a reader holding the
// previous pointer keeps a consistent board, and readers never observe a
// half-applied event.
//
// Events from the local user are suppressed unconditionally: the local
// mutation pipeline already applied (or will apply) the equivalent change,
// and replaying the broadcast could clobber optimistic state that has since
// moved further.
type Reconciler struct {
	mu        sync.Mutex
	localUser uuid.UUID
	board     *domain.Board
	resyncing bool
	onChange  func(*domain.Board)
}

// NewReconciler creates a reconciler for one viewing user. onChange, when
// non-nil, is invoked with each new snapshot after it is swapped in.
func NewReconciler(localUser uuid.UUID, onChange func(*domain.Board)) *Reconciler {
	return &Reconciler{localUser: localUser, onChange: onChange}
}

// Snapshot returns the current board snapshot. The returned value is never
// mutated afterwards; callers may hold it as long as they like.
func (r *Reconciler) Snapshot() *domain.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// BeginResync marks the snapshot stale. Events arriving until CompleteResync
// are dropped rather than applied to a board about to be replaced.
func (r *Reconciler) BeginResync() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resyncing = true
}

// CompleteResync installs a freshly fetched authoritative snapshot, replacing
// the stale one wholesale. No diffing against the old snapshot is attempted.
func (r *Reconciler) CompleteResync(b *domain.Board) {
	r.mu.Lock()
	r.board = b
	r.resyncing = false
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(b)
	}
}

// AbortResync clears the stale marker without installing a snapshot, for
// fetches that are cancelled rather than completed.
func (r *Reconciler) AbortResync() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resyncing = false
}

// Resyncing reports whether a resync fetch is in flight.
func (r *Reconciler) Resyncing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resyncing
}

// Apply processes one inbound structural event. It reports whether the
// snapshot changed; suppressed, stale, and unrecognized events return false.
func (r *Reconciler) Apply(ev event.Event) bool {
	r.mu.Lock()

	if r.resyncing {
		// Dropped, not queued: the pending resync supersedes it.
		r.mu.Unlock()
		return false
	}
	if ev.UserID == r.localUser {
		// Self-echo.
		r.mu.Unlock()
		return false
	}
	if ev.Payload == nil || r.board == nil || ev.BoardID != r.board.ID {
		r.mu.Unlock()
		return false
	}

	next := r.board.Clone()
	if !applyPayload(next, ev.Payload) {
		r.mu.Unlock()
		return false
	}

	r.board = next
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
	return true
}

// applyPayload mutates the cloned snapshot. Returns false when the event was
// a no-op (stale id, unknown kind).
func applyPayload(b *domain.Board, p event.Payload) bool {
	switch p := p.(type) {
	case event.CardMoved:
		for i := range b.Cards {
			if b.Cards[i].ID == p.CardID {
				b.Cards[i].ColumnID = p.TargetColumnID
				b.Cards[i].Position = p.Position
				return true
			}
		}
		return false

	case event.CardUpdated:
		for i := range b.Cards {
			if b.Cards[i].ID == p.CardID {
				p.Updates.Apply(&b.Cards[i])
				return true
			}
		}
		return false

	case event.CardCreated:
		// Appended unconditionally: a duplicate id is an upstream ordering
		// bug, not something handled here.
		b.Cards = append(b.Cards, p.Card)
		return true

	case event.CardDeleted:
		for i := range b.Cards {
			if b.Cards[i].ID == p.CardID {
				b.Cards = append(b.Cards[:i], b.Cards[i+1:]...)
				return true
			}
		}
		return false

	case event.ColumnCreated:
		b.Columns = append(b.Columns, p.Column)
		return true

	case event.ColumnUpdated:
		for i := range b.Columns {
			if b.Columns[i].ID == p.ColumnID {
				p.Updates.Apply(&b.Columns[i])
				return true
			}
		}
		return false

	case event.ColumnDeleted:
		found := false
		cols := b.Columns[:0]
		for _, c := range b.Columns {
			if c.ID == p.ColumnID {
				found = true
				continue
			}
			cols = append(cols, c)
		}
		if !found {
			return false
		}
		b.Columns = cols

		// Cascade in the same snapshot swap so no card ever references a
		// missing column.
		cards := b.Cards[:0]
		for _, c := range b.Cards {
			if c.ColumnID != p.ColumnID {
				cards = append(cards, c)
			}
		}
		b.Cards = cards
		return true

	case event.ColumnsReordered:
		changed := false
		for idx, id := range p.ColumnIDs {
			for i := range b.Columns {
				if b.Columns[i].ID == id {
					b.Columns[i].Position = float64(idx)
					changed = true
					break
				}
			}
		}
		// Columns omitted from the list keep their prior position.
		return changed

	default:
		log.Debug().Str("kind", string(p.Kind())).Msg("ignoring unrecognized event kind")
		return false
	}
}
