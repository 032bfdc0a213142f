// Package event defines the structural-change vocabulary broadcast to board
// rooms and its two wire framings: a tagged-JSON text form and a compact
// binary form. Both decode to the same in-memory Event value.
package event

import (
	"errors"

	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
)

// Kind is the string tag of a structural event.
type Kind string

const (
	KindCardMoved        Kind = "card_moved"
	KindCardUpdated      Kind = "card_updated"
	KindCardCreated      Kind = "card_created"
	KindCardDeleted      Kind = "card_deleted"
	KindColumnCreated    Kind = "column_created"
	KindColumnUpdated    Kind = "column_updated"
	KindColumnDeleted    Kind = "column_deleted"
	KindColumnsReordered Kind = "columns_reordered"
)

var (
	// ErrMalformed is returned when a wire message cannot be decoded or
	// does not carry exactly one event payload.
	ErrMalformed = errors.New("event: malformed message")
	// ErrUnknownKind is returned for event kinds this client does not
	// recognize. Callers drop the event and carry on.
	ErrUnknownKind = errors.New("event: unknown event kind")
)

// Payload is the closed set of structural-event payloads. Exactly one
// concrete type exists per Kind; the interface is sealed so dispatch via type
// switch is exhaustive.
type Payload interface {
	Kind() Kind
	sealed()
}

// Event is one structural change to a board. BoardID routes it to a room,
// UserID names the actor and drives self-echo suppression. Events are
// ephemeral notifications: persistence already happened before broadcast.
type Event struct {
	BoardID uuid.UUID
	UserID  uuid.UUID
	Payload Payload
}

type CardMoved struct {
	CardID         uuid.UUID `json:"card_id" cbor:"1,keyasint"`
	SourceColumnID uuid.UUID `json:"source_column_id" cbor:"2,keyasint"`
	TargetColumnID uuid.UUID `json:"target_column_id" cbor:"3,keyasint"`
	Position       float64   `json:"position" cbor:"4,keyasint"`
}

type CardUpdated struct {
	CardID  uuid.UUID        `json:"card_id" cbor:"1,keyasint"`
	Updates domain.CardPatch `json:"updates" cbor:"2,keyasint"`
}

type CardCreated struct {
	Card domain.Card `json:"card" cbor:"1,keyasint"`
}

type CardDeleted struct {
	CardID uuid.UUID `json:"card_id" cbor:"1,keyasint"`
}

type ColumnCreated struct {
	Column domain.Column `json:"column" cbor:"1,keyasint"`
}

type ColumnUpdated struct {
	ColumnID uuid.UUID          `json:"column_id" cbor:"1,keyasint"`
	Updates  domain.ColumnPatch `json:"updates" cbor:"2,keyasint"`
}

type ColumnDeleted struct {
	ColumnID uuid.UUID `json:"column_id" cbor:"1,keyasint"`
}

type ColumnsReordered struct {
	ColumnIDs []uuid.UUID `json:"column_ids" cbor:"1,keyasint"`
}

func (CardMoved) Kind() Kind        { return KindCardMoved }
func (CardUpdated) Kind() Kind      { return KindCardUpdated }
func (CardCreated) Kind() Kind      { return KindCardCreated }
func (CardDeleted) Kind() Kind      { return KindCardDeleted }
func (ColumnCreated) Kind() Kind    { return KindColumnCreated }
func (ColumnUpdated) Kind() Kind    { return KindColumnUpdated }
func (ColumnDeleted) Kind() Kind    { return KindColumnDeleted }
func (ColumnsReordered) Kind() Kind { return KindColumnsReordered }

func (CardMoved) sealed()        {}
func (CardUpdated) sealed()      {}
func (CardCreated) sealed()      {}
func (CardDeleted) sealed()      {}
func (ColumnCreated) sealed()    {}
func (ColumnUpdated) sealed()    {}
func (ColumnDeleted) sealed()    {}
func (ColumnsReordered) sealed() {}

// IsKnownKind reports whether a string tag names a structural event kind.
func IsKnownKind(s string) bool {
	switch Kind(s) {
	case KindCardMoved, KindCardUpdated, KindCardCreated, KindCardDeleted,
		KindColumnCreated, KindColumnUpdated, KindColumnDeleted, KindColumnsReordered:
		return true
	default:
		return false
	}
}
