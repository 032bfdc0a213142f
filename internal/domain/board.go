package domain

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Column is one vertical lane of a board. Position is a real-number ordering
// key: midpoint insertion produces fractional values, and siblings are never
// renumbered to recover "nice" integers.
type Column struct {
	ID       uuid.UUID `json:"id"`
	BoardID  uuid.UUID `json:"board_id"`
	Title    string    `json:"title"`
	Color    string    `json:"color,omitempty"`
	Position float64   `json:"position"`
}

// Card belongs to exactly one column via ColumnID. Position orders it within
// that column under the same fractional scheme as Column.Position.
type Card struct {
	ID          uuid.UUID `json:"id"`
	ColumnID    uuid.UUID `json:"column_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    float64   `json:"position"`
}

// Board is the client's cached snapshot of one board. It is owned by a single
// viewer: the reconciler replaces it wholesale, never mutates it in place, so
// readers always see either the old snapshot or the new one.
type Board struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Columns []Column  `json:"columns"`
	Cards   []Card    `json:"cards"`
}

// Clone returns a deep copy of the board with freshly allocated slices.
func (b *Board) Clone() *Board {
	out := &Board{
		ID:      b.ID,
		Title:   b.Title,
		Columns: make([]Column, len(b.Columns)),
		Cards:   make([]Card, len(b.Cards)),
	}
	copy(out.Columns, b.Columns)
	copy(out.Cards, b.Cards)
	return out
}

// SortedColumns returns the board's columns ordered by position, with equal
// positions broken by ID so the order is total.
func (b *Board) SortedColumns() []Column {
	cols := make([]Column, len(b.Columns))
	copy(cols, b.Columns)
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].ID.String() < cols[j].ID.String()
	})
	return cols
}

// ColumnCards returns the cards of one column ordered by position with an ID
// tiebreak.
func (b *Board) ColumnCards(columnID uuid.UUID) []Card {
	var cards []Card
	for _, c := range b.Cards {
		if c.ColumnID == columnID {
			cards = append(cards, c)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Position != cards[j].Position {
			return cards[i].Position < cards[j].Position
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
	return cards
}

// CardPatch is a partial card update. Nil fields are left untouched by the
// merge.
type CardPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ColumnID    *uuid.UUID `json:"column_id,omitempty"`
	Position    *float64   `json:"position,omitempty"`
}

// Apply shallow-merges the patch onto a card.
func (p CardPatch) Apply(c *Card) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ColumnID != nil {
		c.ColumnID = *p.ColumnID
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
}

// ColumnPatch is a partial column update.
type ColumnPatch struct {
	Title    *string  `json:"title,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Position *float64 `json:"position,omitempty"`
}

// Apply shallow-merges the patch onto a column.
func (p ColumnPatch) Apply(c *Column) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
}

// BoardMeta is the persistent identity of a board, without its contents.
type BoardMeta struct {
	ID        uuid.UUID
	Title     string
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BoardRepository interface {
	Create(ctx context.Context, b *BoardMeta) error
	GetByID(ctx context.Context, id uuid.UUID) (*BoardMeta, error)
	Snapshot(ctx context.Context, id uuid.UUID) (*Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ColumnRepository interface {
	Create(ctx context.Context, c *Column) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Column, error)
	Update(ctx context.Context, boardID, id uuid.UUID, patch ColumnPatch) (*Column, error)
	// Delete removes the column and every card it holds.
	Delete(ctx context.Context, boardID, id uuid.UUID) error
	// Reorder rewrites the position of each listed column to its 0-based
	// index in the list. Columns not listed keep their prior position.
	Reorder(ctx context.Context, boardID uuid.UUID, columnIDs []uuid.UUID) error
}

type CardRepository interface {
	Create(ctx context.Context, boardID uuid.UUID, c *Card) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*Card, error)
	Update(ctx context.Context, boardID, id uuid.UUID, patch CardPatch) (*Card, error)
	Move(ctx context.Context, boardID, id, targetColumnID uuid.UUID, position float64) (*Card, error)
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
