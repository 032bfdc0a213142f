package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
)

// Presence and room-control messages. Always JSON-framed, independent of the
// structural-event framing.

// Client-to-server intent types.
const (
	IntentJoin       = "join"
	IntentLeave      = "leave"
	IntentCursorMove = "cursor_move"
	IntentDragStart  = "drag_start"
	IntentDragEnd    = "drag_end"
)

// Server-to-client presence types.
const (
	PresenceUserJoined  = "user_joined"
	PresenceUserLeft    = "user_left"
	PresenceCursorMoved = "cursor_moved"
	PresenceDragStarted = "drag_started"
	PresenceDragEnded   = "drag_ended"
	PresenceAudioLevel  = "audio_level"
)

// Intent is a client-to-server room-control or presence message.
type Intent struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"board_id"`

	// cursor_move
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// drag_start
	ItemType domain.DragItemType `json:"item_type,omitempty"`
	ItemID   *uuid.UUID          `json:"item_id,omitempty"`
}

// PresenceMessage is a server-to-client presence notification for one
// participant of a board room.
type PresenceMessage struct {
	Type     string    `json:"type"`
	BoardID  uuid.UUID `json:"board_id"`
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname,omitempty"`

	Cursor     *domain.CursorPos `json:"cursor,omitempty"`
	Dragging   *domain.DragState `json:"dragging,omitempty"`
	AudioLevel *float64          `json:"audio_level,omitempty"`
}

// EncodeJSON marshals any JSON-framed message.
func EncodeJSON(v any) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("event.EncodeJSON: %w", err)
	}
	return out, nil
}

// PeekType extracts the "type" tag of a JSON-framed message without decoding
// the rest, so the session can route text frames between the structural codec
// and the presence path.
func PeekType(data []byte) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("event.PeekType: %w: %v", ErrMalformed, err)
	}
	return probe.Type, nil
}

// DecodePresence unmarshals a server-to-client presence message.
func DecodePresence(data []byte) (PresenceMessage, error) {
	var msg PresenceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return PresenceMessage{}, fmt.Errorf("event.DecodePresence: %w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// DecodeIntent unmarshals a client-to-server intent.
func DecodeIntent(data []byte) (Intent, error) {
	var msg Intent
	if err := json.Unmarshal(data, &msg); err != nil {
		return Intent{}, fmt.Errorf("event.DecodeIntent: %w: %v", ErrMalformed, err)
	}
	return msg, nil
}
