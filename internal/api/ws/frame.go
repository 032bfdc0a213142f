package ws

import (
	"fmt"

	"github.com/coder/websocket"
)

// Room payloads travel through Redis with a one-byte prefix carrying the
// websocket frame type, so relay instances can forward structural events in
// their configured framing (text or binary) and presence always as text.
const (
	framePrefixText   byte = 0x00
	framePrefixBinary byte = 0x01
)

// WrapFrame prefixes a payload with its frame type for publication.
func WrapFrame(typ websocket.MessageType, payload []byte) []byte {
	prefix := framePrefixText
	if typ == websocket.MessageBinary {
		prefix = framePrefixBinary
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, prefix)
	return append(out, payload...)
}

// UnwrapFrame splits a published room payload back into frame type and body.
func UnwrapFrame(data []byte) (websocket.MessageType, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("ws.UnwrapFrame: empty payload")
	}
	switch data[0] {
	case framePrefixText:
		return websocket.MessageText, data[1:], nil
	case framePrefixBinary:
		return websocket.MessageBinary, data[1:], nil
	default:
		return 0, nil, fmt.Errorf("ws.UnwrapFrame: unknown frame prefix 0x%02x", data[0])
	}
}
