package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/server/middleware"
	redisstore "github.com/flowdeck/flowdeck/internal/store/redis"
)

// Hub manages board-room WebSocket connections backed by Redis pub/sub.
// Structural events are published by the REST mutation handlers in the
// deployment's configured framing; the hub forwards them verbatim and adds
// join/leave/cursor/drag presence traffic on top.
type Hub struct {
	pubsub *redisstore.PubSub
	codec  event.Codec
}

// NewHub creates a hub publishing structural events with the given codec.
func NewHub(pubsub *redisstore.PubSub, codec event.Codec) *Hub {
	return &Hub{pubsub: pubsub, codec: codec}
}

// PublishEvent broadcasts one structural event to its board room. Called by
// API handlers after the mutation is persisted.
func (h *Hub) PublishEvent(ctx context.Context, ev event.Event) error {
	payload, err := h.codec.Encode(ev)
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishEvent: %w", err)
	}

	frame := WrapFrame(h.codec.MessageType(), payload)
	if err := h.pubsub.Publish(ctx, redisstore.BoardChannel(ev.BoardID), frame); err != nil {
		return fmt.Errorf("ws.Hub.PublishEvent: %w", err)
	}
	return nil
}

// publishPresence broadcasts one presence notification to a board room.
func (h *Hub) publishPresence(ctx context.Context, msg event.PresenceMessage) {
	raw, err := event.EncodeJSON(msg)
	if err != nil {
		log.Error().Err(err).Msg("presence encode")
		return
	}
	frame := WrapFrame(websocket.MessageText, raw)
	if err := h.pubsub.Publish(ctx, redisstore.BoardChannel(msg.BoardID), frame); err != nil {
		log.Debug().Err(err).Msg("presence publish")
	}
}

// Serve handles one client's push-channel connection. The client controls
// room membership with join/leave intents; at most one room is joined per
// connection, and joining a new room leaves the previous one.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	nickname, _ := middleware.NicknameFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	c := &client{
		hub:      h,
		conn:     conn,
		userID:   userID,
		nickname: nickname,
	}
	c.run(r.Context())

	// The request context is gone once the socket drops; the departure
	// announcement still has to reach the room.
	leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.leave(leaveCtx)
}

// client is the per-connection state: the joined room and its forwarder.
type client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   uuid.UUID
	nickname string

	board       uuid.UUID // joined room, uuid.Nil when none
	leaveRoom   context.CancelFunc
	forwardDone chan struct{}
}

func (c *client) run(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		intent, err := event.DecodeIntent(data)
		if err != nil {
			// Bad frames are dropped; the connection stays open.
			log.Debug().Err(err).Msg("dropping undecodable intent")
			continue
		}

		switch intent.Type {
		case event.IntentJoin:
			c.join(ctx, intent.BoardID)
		case event.IntentLeave:
			if intent.BoardID == c.board {
				c.leave(ctx)
			}
		case event.IntentCursorMove:
			if intent.BoardID != c.board || intent.X == nil || intent.Y == nil {
				continue
			}
			c.hub.publishPresence(ctx, event.PresenceMessage{
				Type:     event.PresenceCursorMoved,
				BoardID:  intent.BoardID,
				UserID:   c.userID,
				Nickname: c.nickname,
				Cursor:   &domain.CursorPos{X: *intent.X, Y: *intent.Y},
			})
		case event.IntentDragStart:
			if intent.BoardID != c.board || intent.ItemID == nil {
				continue
			}
			c.hub.publishPresence(ctx, event.PresenceMessage{
				Type:     event.PresenceDragStarted,
				BoardID:  intent.BoardID,
				UserID:   c.userID,
				Nickname: c.nickname,
				Dragging: &domain.DragState{ItemType: intent.ItemType, ItemID: *intent.ItemID},
			})
		case event.IntentDragEnd:
			if intent.BoardID != c.board {
				continue
			}
			c.hub.publishPresence(ctx, event.PresenceMessage{
				Type:    event.PresenceDragEnded,
				BoardID: intent.BoardID,
				UserID:  c.userID,
			})
		default:
			log.Debug().Str("type", intent.Type).Msg("ignoring unknown intent")
		}
	}
}

// join subscribes the connection to a room, leaving any previous one first.
// Rejoining the current room is a no-op.
func (c *client) join(ctx context.Context, boardID uuid.UUID) {
	if boardID == c.board {
		return
	}
	c.leave(ctx)

	roomCtx, cancel := context.WithCancel(ctx)
	messages, cleanup, err := c.hub.pubsub.Subscribe(roomCtx, redisstore.BoardChannel(boardID))
	if err != nil {
		cancel()
		log.Error().Err(err).Stringer("board_id", boardID).Msg("room subscribe")
		return
	}

	c.board = boardID
	c.leaveRoom = func() {
		cancel()
		cleanup()
	}
	c.forwardDone = make(chan struct{})

	go c.forward(roomCtx, messages, c.forwardDone)

	c.hub.publishPresence(ctx, event.PresenceMessage{
		Type:     event.PresenceUserJoined,
		BoardID:  boardID,
		UserID:   c.userID,
		Nickname: c.nickname,
	})
}

// leave unsubscribes from the joined room and announces departure. Idempotent.
func (c *client) leave(ctx context.Context) {
	if c.board == uuid.Nil {
		return
	}
	board := c.board
	c.board = uuid.Nil

	c.leaveRoom()
	c.leaveRoom = nil
	<-c.forwardDone
	c.forwardDone = nil

	c.hub.publishPresence(ctx, event.PresenceMessage{
		Type:    event.PresenceUserLeft,
		BoardID: board,
		UserID:  c.userID,
	})
}

// forward pumps room traffic to the websocket until the room is left or the
// connection drops.
func (c *client) forward(ctx context.Context, messages <-chan []byte, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			typ, payload, err := UnwrapFrame(msg)
			if err != nil {
				log.Debug().Err(err).Msg("dropping malformed room frame")
				continue
			}
			if err := c.conn.Write(ctx, typ, payload); err != nil {
				log.Debug().Err(err).Msg("websocket write")
				return
			}
		}
	}
}
