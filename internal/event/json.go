package event

import (
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// JSONCodec frames events as a tagged-JSON envelope:
// {"type": "...", "board_id": "...", "user_id": "...", "data": {...}}.
type JSONCodec struct{}

type jsonEnvelope struct {
	Type    string          `json:"type"`
	BoardID uuid.UUID       `json:"board_id"`
	UserID  uuid.UUID       `json:"user_id"`
	Data    json.RawMessage `json:"data"`
}

func (JSONCodec) MessageType() websocket.MessageType { return websocket.MessageText }

func (JSONCodec) Encode(ev Event) ([]byte, error) {
	if ev.Payload == nil {
		return nil, fmt.Errorf("event.JSONCodec.Encode: %w", ErrMalformed)
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("event.JSONCodec.Encode: %w", err)
	}

	out, err := json.Marshal(jsonEnvelope{
		Type:    string(ev.Payload.Kind()),
		BoardID: ev.BoardID,
		UserID:  ev.UserID,
		Data:    data,
	})
	if err != nil {
		return nil, fmt.Errorf("event.JSONCodec.Encode: %w", err)
	}

	return out, nil
}

func (JSONCodec) Decode(data []byte) (Event, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("event.JSONCodec.Decode: %w: %v", ErrMalformed, err)
	}

	payload, err := payloadForKind(Kind(env.Type))
	if err != nil {
		return Event{}, fmt.Errorf("event.JSONCodec.Decode: %w", err)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return Event{}, fmt.Errorf("event.JSONCodec.Decode: %w: %v", ErrMalformed, err)
		}
	}

	return Event{
		BoardID: env.BoardID,
		UserID:  env.UserID,
		Payload: deref(payload),
	}, nil
}

// payloadForKind returns a pointer to a zero payload value for unmarshaling.
func payloadForKind(k Kind) (Payload, error) {
	switch k {
	case KindCardMoved:
		return &CardMoved{}, nil
	case KindCardUpdated:
		return &CardUpdated{}, nil
	case KindCardCreated:
		return &CardCreated{}, nil
	case KindCardDeleted:
		return &CardDeleted{}, nil
	case KindColumnCreated:
		return &ColumnCreated{}, nil
	case KindColumnUpdated:
		return &ColumnUpdated{}, nil
	case KindColumnDeleted:
		return &ColumnDeleted{}, nil
	case KindColumnsReordered:
		return &ColumnsReordered{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// deref flattens the pointer payloads used for unmarshaling back to the value
// forms carried by Event, so events compare equal regardless of codec.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *CardMoved:
		return *v
	case *CardUpdated:
		return *v
	case *CardCreated:
		return *v
	case *CardDeleted:
		return *v
	case *ColumnCreated:
		return *v
	case *ColumnUpdated:
		return *v
	case *ColumnDeleted:
		return *v
	case *ColumnsReordered:
		return *v
	default:
		return p
	}
}
