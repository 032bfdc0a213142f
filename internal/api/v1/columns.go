package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/server/middleware"
)

// broadcast publishes a structural event to the board room. The mutation is
// already persisted at this point, so a failed broadcast is logged rather than
// surfaced: affected clients repair on their next resync.
func broadcast(ctx context.Context, pub EventPublisher, ev event.Event) {
	if err := pub.PublishEvent(ctx, ev); err != nil {
		log.Warn().Err(err).
			Stringer("board_id", ev.BoardID).
			Str("kind", string(ev.Payload.Kind())).
			Msg("event broadcast failed")
	}
}

type CreateColumnInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Title string `json:"title" minLength:"1" maxLength:"200" doc:"Column title"`
		Color string `json:"color,omitempty" maxLength:"32" doc:"Display color"`
		Index *int   `json:"index,omitempty" doc:"Insertion index; omitted appends at the end"`
	}
}

type CreateColumnOutput struct {
	Status int
	Body   *domain.Column
}

type UpdateColumnInput struct {
	BoardID  uuid.UUID `path:"boardID" doc:"Board ID"`
	ColumnID uuid.UUID `path:"columnID" doc:"Column ID"`
	Body     domain.ColumnPatch
}

type UpdateColumnOutput struct {
	Body *domain.Column
}

type DeleteColumnInput struct {
	BoardID  uuid.UUID `path:"boardID" doc:"Board ID"`
	ColumnID uuid.UUID `path:"columnID" doc:"Column ID"`
}

type ReorderColumnsInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		ColumnIDs []uuid.UUID `json:"column_ids" minItems:"1" doc:"Columns in their new left-to-right order"`
	}
}

func RegisterColumnRoutes(api huma.API, store DataStore, pub EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-column",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/columns",
		Summary:     "Create a column",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *CreateColumnInput) (*CreateColumnOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		board, err := store.Boards().Snapshot(ctx, input.BoardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to load board", err)
		}

		sorted := board.SortedColumns()
		positions := make([]float64, len(sorted))
		for i, c := range sorted {
			positions[i] = c.Position
		}
		index := len(positions)
		if input.Body.Index != nil {
			index = *input.Body.Index
		}

		col := &domain.Column{
			ID:       uuid.New(),
			BoardID:  input.BoardID,
			Title:    input.Body.Title,
			Color:    input.Body.Color,
			Position: domain.PositionAt(positions, index),
		}

		if err := store.Columns().Create(ctx, col); err != nil {
			return nil, huma.Error500InternalServerError("failed to create column", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.ColumnCreated{Column: *col},
		})

		return &CreateColumnOutput{Status: http.StatusCreated, Body: col}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-column",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/columns/{columnID}",
		Summary:     "Update a column",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *UpdateColumnInput) (*UpdateColumnOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		col, err := store.Columns().Update(ctx, input.BoardID, input.ColumnID, input.Body)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to update column", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.ColumnUpdated{ColumnID: input.ColumnID, Updates: input.Body},
		})

		return &UpdateColumnOutput{Body: col}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-column",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/columns/{columnID}",
		Summary:     "Delete a column and every card it holds",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *DeleteColumnInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if err := store.Columns().Delete(ctx, input.BoardID, input.ColumnID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete column", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.ColumnDeleted{ColumnID: input.ColumnID},
		})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-columns",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}/columns/order",
		Summary:     "Reorder columns",
		Description: "Rewrites the position of each listed column to its index in the list.",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *ReorderColumnsInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if err := store.Columns().Reorder(ctx, input.BoardID, input.Body.ColumnIDs); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to reorder columns", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.ColumnsReordered{ColumnIDs: input.Body.ColumnIDs},
		})

		return nil, nil
	})
}
