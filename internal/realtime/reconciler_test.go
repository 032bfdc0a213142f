package realtime_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/realtime"
)

var (
	localUser = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	otherUser = uuid.MustParse("22222222-0000-0000-0000-000000000002")
)

func ptr[T any](v T) *T { return &v }

// testBoard builds a three-column board with one card per column.
func testBoard() *domain.Board {
	boardID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	c1 := uuid.MustParse("c1c1c1c1-0000-0000-0000-000000000001")
	c2 := uuid.MustParse("c2c2c2c2-0000-0000-0000-000000000002")
	c3 := uuid.MustParse("c3c3c3c3-0000-0000-0000-000000000003")

	return &domain.Board{
		ID:    boardID,
		Title: "sprint",
		Columns: []domain.Column{
			{ID: c1, BoardID: boardID, Title: "todo", Position: 0},
			{ID: c2, BoardID: boardID, Title: "doing", Position: 1},
			{ID: c3, BoardID: boardID, Title: "done", Position: 2},
		},
		Cards: []domain.Card{
			{ID: uuid.MustParse("aaaa0000-0000-0000-0000-000000000001"), ColumnID: c1, Title: "one", Position: 1},
			{ID: uuid.MustParse("aaaa0000-0000-0000-0000-000000000002"), ColumnID: c2, Title: "two", Position: 1},
			{ID: uuid.MustParse("aaaa0000-0000-0000-0000-000000000003"), ColumnID: c3, Title: "three", Position: 1},
		},
	}
}

func newReconciler(t *testing.T) (*realtime.Reconciler, *domain.Board) {
	t.Helper()
	r := realtime.NewReconciler(localUser, nil)
	b := testBoard()
	r.BeginResync()
	r.CompleteResync(b)
	return r, b
}

func fromOther(b *domain.Board, p event.Payload) event.Event {
	return event.Event{BoardID: b.ID, UserID: otherUser, Payload: p}
}

func TestSelfEchoSuppression(t *testing.T) {
	t.Parallel()

	r, before := newReconciler(t)

	payloads := []event.Payload{
		event.CardMoved{CardID: before.Cards[0].ID, TargetColumnID: before.Columns[2].ID, Position: 9},
		event.CardUpdated{CardID: before.Cards[0].ID, Updates: domain.CardPatch{Title: ptr("x")}},
		event.CardCreated{Card: domain.Card{ID: uuid.New(), ColumnID: before.Columns[0].ID}},
		event.CardDeleted{CardID: before.Cards[0].ID},
		event.ColumnCreated{Column: domain.Column{ID: uuid.New(), BoardID: before.ID}},
		event.ColumnUpdated{ColumnID: before.Columns[0].ID, Updates: domain.ColumnPatch{Title: ptr("x")}},
		event.ColumnDeleted{ColumnID: before.Columns[0].ID},
		event.ColumnsReordered{ColumnIDs: []uuid.UUID{before.Columns[2].ID, before.Columns[0].ID}},
	}

	for _, p := range payloads {
		applied := r.Apply(event.Event{BoardID: before.ID, UserID: localUser, Payload: p})
		assert.False(t, applied, "kind %s", p.Kind())
	}

	// The snapshot pointer is untouched, not just equivalent.
	assert.Same(t, before, r.Snapshot())
}

func TestApplyCardMoved(t *testing.T) {
	t.Parallel()

	t.Run("moves and repositions", func(t *testing.T) {
		t.Parallel()

		r, b := newReconciler(t)
		target := b.Columns[2].ID

		applied := r.Apply(fromOther(b, event.CardMoved{
			CardID:         b.Cards[0].ID,
			SourceColumnID: b.Columns[0].ID,
			TargetColumnID: target,
			Position:       1.5,
		}))
		require.True(t, applied)

		got := r.Snapshot()
		assert.Equal(t, target, got.Cards[0].ColumnID)
		assert.Equal(t, 1.5, got.Cards[0].Position)
		// Other fields replaced outright? No: only owner and position change.
		assert.Equal(t, "one", got.Cards[0].Title)
	})

	t.Run("absent card is ignored", func(t *testing.T) {
		t.Parallel()

		r, b := newReconciler(t)
		applied := r.Apply(fromOther(b, event.CardMoved{CardID: uuid.New(), TargetColumnID: b.Columns[0].ID, Position: 2}))
		assert.False(t, applied)
		assert.Same(t, b, r.Snapshot())
	})
}

func TestApplyCardUpdated(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)

	applied := r.Apply(fromOther(b, event.CardUpdated{
		CardID:  b.Cards[1].ID,
		Updates: domain.CardPatch{Description: ptr("details")},
	}))
	require.True(t, applied)

	got := r.Snapshot()
	assert.Equal(t, "details", got.Cards[1].Description)
	// Fields absent from the patch survive the merge.
	assert.Equal(t, "two", got.Cards[1].Title)
	assert.Equal(t, 1.0, got.Cards[1].Position)
}

func TestApplyCardCreatedUnconditionally(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)
	card := domain.Card{ID: b.Cards[0].ID, ColumnID: b.Columns[0].ID, Title: "dup", Position: 2}

	applied := r.Apply(fromOther(b, event.CardCreated{Card: card}))
	require.True(t, applied)

	// No dedup: a duplicate id is appended as-is.
	assert.Len(t, r.Snapshot().Cards, 4)
}

func TestIdempotentCardDelete(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)

	applied := r.Apply(fromOther(b, event.CardDeleted{CardID: uuid.New()}))
	assert.False(t, applied)
	assert.Same(t, b, r.Snapshot())

	applied = r.Apply(fromOther(b, event.CardDeleted{CardID: b.Cards[2].ID}))
	require.True(t, applied)
	assert.Len(t, r.Snapshot().Cards, 2)
}

func TestColumnDeleteCascades(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)
	victim := b.Columns[1].ID

	applied := r.Apply(fromOther(b, event.ColumnDeleted{ColumnID: victim}))
	require.True(t, applied)

	got := r.Snapshot()
	assert.Len(t, got.Columns, 2)
	for _, c := range got.Cards {
		assert.NotEqual(t, victim, c.ColumnID, "card %s orphaned", c.ID)
	}

	// Deleting an absent column is a silent no-op.
	prev := r.Snapshot()
	assert.False(t, r.Apply(fromOther(b, event.ColumnDeleted{ColumnID: victim})))
	assert.Same(t, prev, r.Snapshot())
}

func TestColumnsReordered(t *testing.T) {
	t.Parallel()

	t.Run("rewrites positions to list index", func(t *testing.T) {
		t.Parallel()

		r, b := newReconciler(t)
		c1, c2, c3 := b.Columns[0].ID, b.Columns[1].ID, b.Columns[2].ID

		applied := r.Apply(fromOther(b, event.ColumnsReordered{ColumnIDs: []uuid.UUID{c2, c1, c3}}))
		require.True(t, applied)

		got := r.Snapshot()
		byID := map[uuid.UUID]float64{}
		for _, c := range got.Columns {
			byID[c.ID] = c.Position
		}
		assert.Equal(t, 0.0, byID[c2])
		assert.Equal(t, 1.0, byID[c1])
		assert.Equal(t, 2.0, byID[c3])
	})

	t.Run("omitted columns keep prior position and stay", func(t *testing.T) {
		t.Parallel()

		r, b := newReconciler(t)
		c1, c3 := b.Columns[0].ID, b.Columns[2].ID

		applied := r.Apply(fromOther(b, event.ColumnsReordered{ColumnIDs: []uuid.UUID{c3, c1}}))
		require.True(t, applied)

		got := r.Snapshot()
		require.Len(t, got.Columns, 3)
		byID := map[uuid.UUID]float64{}
		for _, c := range got.Columns {
			byID[c.ID] = c.Position
		}
		assert.Equal(t, 0.0, byID[c3])
		assert.Equal(t, 1.0, byID[c1])
		assert.Equal(t, 1.0, byID[b.Columns[1].ID]) // untouched
	})
}

func TestColumnUpdatedMerge(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)

	applied := r.Apply(fromOther(b, event.ColumnUpdated{
		ColumnID: b.Columns[0].ID,
		Updates:  domain.ColumnPatch{Color: ptr("#112233")},
	}))
	require.True(t, applied)

	got := r.Snapshot()
	assert.Equal(t, "#112233", got.Columns[0].Color)
	assert.Equal(t, "todo", got.Columns[0].Title)
}

func TestWrongBoardDiscarded(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)

	applied := r.Apply(event.Event{
		BoardID: uuid.New(),
		UserID:  otherUser,
		Payload: event.CardDeleted{CardID: b.Cards[0].ID},
	})
	assert.False(t, applied)
	assert.Same(t, b, r.Snapshot())
}

func TestResyncGating(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)

	r.BeginResync()
	require.True(t, r.Resyncing())

	// An event arriving while the fetch is in flight must not touch the
	// pre-resync snapshot.
	applied := r.Apply(fromOther(b, event.CardDeleted{CardID: b.Cards[0].ID}))
	assert.False(t, applied)
	assert.Same(t, b, r.Snapshot())

	fresh := &domain.Board{ID: b.ID, Title: "fresh"}
	r.CompleteResync(fresh)

	// The post-resync snapshot is exactly the fetched board, no merge.
	assert.False(t, r.Resyncing())
	assert.Same(t, fresh, r.Snapshot())
}

func TestSnapshotSwapIsAtomic(t *testing.T) {
	t.Parallel()

	r, b := newReconciler(t)
	before := r.Snapshot()

	applied := r.Apply(fromOther(b, event.ColumnDeleted{ColumnID: b.Columns[0].ID}))
	require.True(t, applied)

	// The old snapshot a reader may still hold is untouched.
	assert.Len(t, before.Columns, 3)
	assert.Len(t, before.Cards, 3)
	assert.Len(t, r.Snapshot().Columns, 2)
}

func TestOnChangeNotified(t *testing.T) {
	t.Parallel()

	var seen []*domain.Board
	r := realtime.NewReconciler(localUser, func(b *domain.Board) { seen = append(seen, b) })
	b := testBoard()
	r.BeginResync()
	r.CompleteResync(b)

	r.Apply(fromOther(b, event.CardDeleted{CardID: b.Cards[0].ID}))

	require.Len(t, seen, 2) // resync + delete
	assert.Same(t, r.Snapshot(), seen[1])
}
