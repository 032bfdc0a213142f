package event

import "github.com/coder/websocket"

// Codec is one wire framing of the structural-event vocabulary.
type Codec interface {
	Encode(ev Event) ([]byte, error)
	Decode(data []byte) (Event, error)
	// MessageType is the websocket frame type this codec's output is sent as.
	MessageType() websocket.MessageType
}

// ForConfig selects the deployment-wide framing: compact binary when binary
// is set, tagged JSON otherwise. Presence and room-control messages stay
// JSON-framed regardless.
func ForConfig(binary bool) Codec {
	if binary {
		return BinaryCodec{}
	}
	return JSONCodec{}
}
