package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/internal/realtime"
)

// statusRecorder collects state transitions from OnStatus.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []realtime.Status
}

func (r *statusRecorder) record(st realtime.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *statusRecorder) states() []realtime.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.State, len(r.statuses))
	for i, st := range r.statuses {
		out[i] = st.State
	}
	return out
}

func (r *statusRecorder) last() realtime.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return realtime.Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "disconnected", realtime.StateDisconnected.String())
	assert.Equal(t, "connecting", realtime.StateConnecting.String())
	assert.Equal(t, "connected", realtime.StateConnected.String())
	assert.Equal(t, "reconnecting", realtime.StateReconnecting.String())
}

func TestAuthFailureIsFatal(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{}
	var mu sync.Mutex
	dials := 0

	conn := realtime.NewConn(realtime.ConnConfig{
		OnStatus: rec.record,
		Dial: func(context.Context) (*websocket.Conn, error) {
			mu.Lock()
			dials++
			mu.Unlock()
			return nil, realtime.ErrAuthFailed
		},
	})
	require.NoError(t, conn.Open(context.Background()))

	// Wait for the terminal status carrying the auth error, not just the
	// disconnected state: a zero Status reports StateDisconnected too.
	require.Eventually(t, func() bool {
		return rec.last().Err != nil
	}, time.Second, 5*time.Millisecond)

	// No retry after an auth rejection, and the reason is surfaced.
	mu.Lock()
	assert.Equal(t, 1, dials)
	mu.Unlock()
	assert.ErrorIs(t, rec.last().Err, realtime.ErrAuthFailed)
	assert.Equal(t, []realtime.State{realtime.StateConnecting, realtime.StateDisconnected}, rec.states())

	require.NoError(t, conn.Close())
}

func TestTransportErrorRetriesUntilClosed(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{}
	var mu sync.Mutex
	dials := 0

	conn := realtime.NewConn(realtime.ConnConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		OnStatus:       rec.record,
		Dial: func(context.Context) (*websocket.Conn, error) {
			mu.Lock()
			dials++
			mu.Unlock()
			return nil, errors.New("connection refused")
		},
	})
	require.NoError(t, conn.Open(context.Background()))

	// Transport errors are non-fatal: attempts keep coming.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return dials >= 3
	}, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Equal(t, realtime.StateDisconnected, rec.last().State)
	assert.Nil(t, rec.last().Err)
}

func TestJoinLeaveWhileDisconnected(t *testing.T) {
	t.Parallel()

	conn := realtime.NewConn(realtime.ConnConfig{
		Dial: func(ctx context.Context) (*websocket.Conn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	boardID := uuid.New()

	// Join is recorded for replay on the next handshake.
	require.NoError(t, conn.JoinBoard(context.Background(), boardID))
	assert.Equal(t, boardID, conn.Board())

	// Rejoining the joined room and leaving a never-joined room are no-ops.
	require.NoError(t, conn.JoinBoard(context.Background(), boardID))
	require.NoError(t, conn.LeaveBoard(context.Background(), uuid.New()))
	assert.Equal(t, boardID, conn.Board())

	require.NoError(t, conn.LeaveBoard(context.Background(), boardID))
	assert.Equal(t, uuid.Nil, conn.Board())

	// Leaving twice must not error.
	require.NoError(t, conn.LeaveBoard(context.Background(), boardID))

	require.NoError(t, conn.Close())

	assert.ErrorIs(t, conn.JoinBoard(context.Background(), boardID), realtime.ErrClosed)
	assert.ErrorIs(t, conn.LeaveBoard(context.Background(), boardID), realtime.ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	conn := realtime.NewConn(realtime.ConnConfig{
		Dial: func(ctx context.Context) (*websocket.Conn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	require.NoError(t, conn.Open(context.Background()))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	assert.ErrorIs(t, conn.Open(context.Background()), realtime.ErrClosed)
	assert.Equal(t, realtime.StateDisconnected, conn.Status().State)
}
