package event

import (
	"fmt"

	"github.com/coder/websocket"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// BinaryCodec frames events as a single CBOR tagged-union message with
// integer keys. Exactly one variant field is populated per message; zero or
// more than one is malformed. float64 positions survive bit-exact, the CBOR
// encoder is configured to never shorten floats.
type BinaryCodec struct{}

// binaryMessage is the tagged-union wire form. Field numbers are part of the
// wire contract, never reuse a retired one.
type binaryMessage struct {
	BoardID uuid.UUID `cbor:"1,keyasint"`
	UserID  uuid.UUID `cbor:"2,keyasint"`

	CardMoved        *CardMoved        `cbor:"3,keyasint,omitempty"`
	CardUpdated      *CardUpdated      `cbor:"4,keyasint,omitempty"`
	CardCreated      *CardCreated      `cbor:"5,keyasint,omitempty"`
	CardDeleted      *CardDeleted      `cbor:"6,keyasint,omitempty"`
	ColumnCreated    *ColumnCreated    `cbor:"7,keyasint,omitempty"`
	ColumnUpdated    *ColumnUpdated    `cbor:"8,keyasint,omitempty"`
	ColumnDeleted    *ColumnDeleted    `cbor:"9,keyasint,omitempty"`
	ColumnsReordered *ColumnsReordered `cbor:"10,keyasint,omitempty"`
}

var (
	binaryEncMode cbor.EncMode
	binaryDecMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.ShortestFloat = cbor.ShortestFloatNone

	var err error
	binaryEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(err)
	}

	binaryDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

func (BinaryCodec) MessageType() websocket.MessageType { return websocket.MessageBinary }

func (BinaryCodec) Encode(ev Event) ([]byte, error) {
	msg := binaryMessage{BoardID: ev.BoardID, UserID: ev.UserID}

	switch p := ev.Payload.(type) {
	case CardMoved:
		msg.CardMoved = &p
	case CardUpdated:
		msg.CardUpdated = &p
	case CardCreated:
		msg.CardCreated = &p
	case CardDeleted:
		msg.CardDeleted = &p
	case ColumnCreated:
		msg.ColumnCreated = &p
	case ColumnUpdated:
		msg.ColumnUpdated = &p
	case ColumnDeleted:
		msg.ColumnDeleted = &p
	case ColumnsReordered:
		msg.ColumnsReordered = &p
	default:
		return nil, fmt.Errorf("event.BinaryCodec.Encode: %w", ErrMalformed)
	}

	out, err := binaryEncMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("event.BinaryCodec.Encode: %w", err)
	}

	return out, nil
}

func (BinaryCodec) Decode(data []byte) (Event, error) {
	var msg binaryMessage
	if err := binaryDecMode.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("event.BinaryCodec.Decode: %w: %v", ErrMalformed, err)
	}

	var payload Payload
	count := 0
	for _, p := range []Payload{
		valueOrNil(msg.CardMoved),
		valueOrNil(msg.CardUpdated),
		valueOrNil(msg.CardCreated),
		valueOrNil(msg.CardDeleted),
		valueOrNil(msg.ColumnCreated),
		valueOrNil(msg.ColumnUpdated),
		valueOrNil(msg.ColumnDeleted),
		valueOrNil(msg.ColumnsReordered),
	} {
		if p != nil {
			payload = p
			count++
		}
	}

	if count != 1 {
		return Event{}, fmt.Errorf("event.BinaryCodec.Decode: %w: %d variant fields set", ErrMalformed, count)
	}

	return Event{BoardID: msg.BoardID, UserID: msg.UserID, Payload: payload}, nil
}

func valueOrNil[T Payload](p *T) Payload {
	if p == nil {
		return nil
	}
	return *p
}
