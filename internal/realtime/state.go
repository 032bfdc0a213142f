// Package realtime is the client side of board synchronization: it owns the
// push-channel connection, tracks presence, and reconciles inbound structural
// events against the locally cached board snapshot.
package realtime

import "errors"

// State is the lifecycle phase of the push-channel connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Status pairs a connection state with the reason it was entered. Err is set
// only for disconnected-with-reason, most notably auth failure.
type Status struct {
	State State
	Err   error
}

// ErrAuthFailed marks a handshake rejected by the server. It is fatal for the
// session: the UI should prompt re-authentication instead of retrying.
var ErrAuthFailed = errors.New("realtime: authentication failed")

// ErrClosed is returned by operations on a session that has been closed.
var ErrClosed = errors.New("realtime: connection closed")
