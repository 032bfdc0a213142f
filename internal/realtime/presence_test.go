package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
)

var (
	self    = uuid.MustParse("11111111-0000-0000-0000-00000000000a")
	peer    = uuid.MustParse("22222222-0000-0000-0000-00000000000b")
	boardID = uuid.MustParse("bbbbbbbb-0000-0000-0000-00000000000c")
)

func TestTrackerMembership(t *testing.T) {
	t.Parallel()

	tr := NewTracker(self, 0, nil)

	tr.Handle(event.PresenceMessage{Type: event.PresenceUserJoined, BoardID: boardID, UserID: peer, Nickname: "mira"})
	others := tr.Others()
	require.Len(t, others, 1)
	assert.Equal(t, "mira", others[0].Nickname)

	// The local user never appears in the others view.
	tr.Handle(event.PresenceMessage{Type: event.PresenceUserJoined, BoardID: boardID, UserID: self, Nickname: "me"})
	assert.Len(t, tr.Others(), 1)

	// Leave removes the record immediately, no grace period.
	tr.Handle(event.PresenceMessage{Type: event.PresenceUserLeft, BoardID: boardID, UserID: peer})
	assert.Empty(t, tr.Others())
}

func TestTrackerCursorAndDrag(t *testing.T) {
	t.Parallel()

	tr := NewTracker(self, 0, nil)
	itemID := uuid.New()

	// A cursor event for an unseen user creates the record: join and cursor
	// notifications can race.
	tr.Handle(event.PresenceMessage{
		Type: event.PresenceCursorMoved, BoardID: boardID, UserID: peer,
		Cursor: &domain.CursorPos{X: 3, Y: 4},
	})
	others := tr.Others()
	require.Len(t, others, 1)
	require.NotNil(t, others[0].Cursor)
	assert.Equal(t, 3.0, others[0].Cursor.X)

	tr.Handle(event.PresenceMessage{
		Type: event.PresenceDragStarted, BoardID: boardID, UserID: peer,
		Dragging: &domain.DragState{ItemType: domain.DragItemCard, ItemID: itemID},
	})
	require.NotNil(t, tr.Others()[0].Dragging)
	assert.Equal(t, itemID, tr.Others()[0].Dragging.ItemID)

	tr.Handle(event.PresenceMessage{Type: event.PresenceDragEnded, BoardID: boardID, UserID: peer})
	assert.Nil(t, tr.Others()[0].Dragging)
}

func TestTrackerReset(t *testing.T) {
	t.Parallel()

	tr := NewTracker(self, 0, nil)
	tr.Handle(event.PresenceMessage{Type: event.PresenceUserJoined, BoardID: boardID, UserID: peer})
	require.Len(t, tr.Others(), 1)

	tr.Reset()
	assert.Empty(t, tr.Others())
}

func TestCursorThrottleLeadingEdge(t *testing.T) {
	t.Parallel()

	var emitted []event.Intent
	tr := NewTracker(self, 50*time.Millisecond, func(i event.Intent) error {
		emitted = append(emitted, i)
		return nil
	})

	now := time.Unix(1000, 0)
	tr.now = func() time.Time { return now }

	// Samples every 10ms for 100ms: at most one emission per 50ms window.
	for i := range 11 {
		tr.ReportCursor(boardID, float64(i), 0)
		now = now.Add(10 * time.Millisecond)
	}

	require.Len(t, emitted, 3) // t=0, t=50, t=100

	// Each emission carries the sample given at emission time, not a
	// buffered earlier one.
	assert.Equal(t, 0.0, *emitted[0].X)
	assert.Equal(t, 5.0, *emitted[1].X)
	assert.Equal(t, 10.0, *emitted[2].X)

	for _, e := range emitted {
		assert.Equal(t, event.IntentCursorMove, e.Type)
		assert.Equal(t, boardID, e.BoardID)
	}
}

func TestDragReportsUnthrottled(t *testing.T) {
	t.Parallel()

	var emitted []event.Intent
	tr := NewTracker(self, time.Hour, func(i event.Intent) error {
		emitted = append(emitted, i)
		return nil
	})

	itemID := uuid.New()
	require.NoError(t, tr.ReportDragStart(boardID, domain.DragItemColumn, itemID))
	require.NoError(t, tr.ReportDragEnd(boardID))
	require.NoError(t, tr.ReportDragStart(boardID, domain.DragItemCard, itemID))

	require.Len(t, emitted, 3)
	assert.Equal(t, event.IntentDragStart, emitted[0].Type)
	assert.Equal(t, domain.DragItemColumn, emitted[0].ItemType)
	assert.Equal(t, event.IntentDragEnd, emitted[1].Type)
	assert.Equal(t, event.IntentDragStart, emitted[2].Type)
}
