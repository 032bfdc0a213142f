package domain

import "github.com/google/uuid"

// CursorPos is a live cursor location in board coordinates.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragItemType names what a participant is dragging.
type DragItemType string

const (
	DragItemCard   DragItemType = "card"
	DragItemColumn DragItemType = "column"
)

// DragState marks a drag gesture in progress.
type DragState struct {
	ItemType DragItemType `json:"item_type"`
	ItemID   uuid.UUID    `json:"item_id"`
}

// Presence is the ephemeral state of one other participant on the same board.
// It is rebuilt from scratch on every room (re)join and never persisted.
type Presence struct {
	UserID     uuid.UUID  `json:"user_id"`
	Nickname   string     `json:"nickname"`
	Cursor     *CursorPos `json:"cursor,omitempty"`
	Dragging   *DragState `json:"dragging,omitempty"`
	AudioLevel *float64   `json:"audio_level,omitempty"`
}
