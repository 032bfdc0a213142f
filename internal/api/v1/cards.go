package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/server/middleware"
)

type CreateCardInput struct {
	BoardID  uuid.UUID `path:"boardID" doc:"Board ID"`
	ColumnID uuid.UUID `path:"columnID" doc:"Column ID"`
	Body     struct {
		Title       string `json:"title" minLength:"1" maxLength:"500" doc:"Card title"`
		Description string `json:"description,omitempty" doc:"Card description"`
		Index       *int   `json:"index,omitempty" doc:"Insertion index within the column; omitted appends at the end"`
	}
}

type CreateCardOutput struct {
	Status int
	Body   *domain.Card
}

type UpdateCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	Body    struct {
		Title       *string `json:"title,omitempty" maxLength:"500" doc:"Card title"`
		Description *string `json:"description,omitempty" doc:"Card description"`
	}
}

type UpdateCardOutput struct {
	Body *domain.Card
}

type MoveCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	Body    struct {
		TargetColumnID uuid.UUID `json:"target_column_id" doc:"Destination column"`
		Index          *int      `json:"index,omitempty" doc:"Insertion index within the destination; omitted appends at the end"`
	}
}

type MoveCardOutput struct {
	Body *domain.Card
}

type DeleteCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

// columnInsertPosition computes the midpoint position for inserting into a
// column at the given index. The moved card, if any, is excluded from the
// sibling list so moving within a column lands where the user dropped it.
func columnInsertPosition(board *domain.Board, columnID uuid.UUID, index *int, exclude uuid.UUID) float64 {
	var positions []float64
	for _, c := range board.ColumnCards(columnID) {
		if c.ID == exclude {
			continue
		}
		positions = append(positions, c.Position)
	}
	at := len(positions)
	if index != nil {
		at = *index
	}
	return domain.PositionAt(positions, at)
}

func RegisterCardRoutes(api huma.API, store DataStore, pub EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-card",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/columns/{columnID}/cards",
		Summary:     "Create a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CreateCardInput) (*CreateCardOutput, error) {
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
		if _, err := store.Columns().GetByID(ctx, input.BoardID, input.ColumnID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate column", err)
		}

		card := &domain.Card{
			ID:          uuid.New(),
			ColumnID:    input.ColumnID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Position:    columnInsertPosition(board, input.ColumnID, input.Body.Index, uuid.Nil),
		}

		if err := store.Cards().Create(ctx, input.BoardID, card); err != nil {
			return nil, huma.Error500InternalServerError("failed to create card", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.CardCreated{Card: *card},
		})

		return &CreateCardOutput{Status: http.StatusCreated, Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/cards/{cardID}",
		Summary:     "Update a card's text fields",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardInput) (*UpdateCardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		patch := domain.CardPatch{
			Title:       input.Body.Title,
			Description: input.Body.Description,
		}

		card, err := store.Cards().Update(ctx, input.BoardID, input.CardID, patch)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to update card", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.CardUpdated{CardID: input.CardID, Updates: patch},
		})

		return &UpdateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-card",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/cards/{cardID}/move",
		Summary:     "Move a card to a column position",
		Description: "Assigns a midpoint position between the destination neighbors; siblings are never renumbered.",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *MoveCardInput) (*MoveCardOutput, error) {
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

		existing, err := store.Cards().GetByID(ctx, input.BoardID, input.CardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to get card", err)
		}
		if _, err := store.Columns().GetByID(ctx, input.BoardID, input.Body.TargetColumnID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("target column not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate column", err)
		}

		position := columnInsertPosition(board, input.Body.TargetColumnID, input.Body.Index, input.CardID)

		card, err := store.Cards().Move(ctx, input.BoardID, input.CardID, input.Body.TargetColumnID, position)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to move card", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.CardMoved{
				CardID:         input.CardID,
				SourceColumnID: existing.ColumnID,
				TargetColumnID: input.Body.TargetColumnID,
				Position:       position,
			},
		})

		return &MoveCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-card",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/cards/{cardID}",
		Summary:     "Delete a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *DeleteCardInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if err := store.Cards().Delete(ctx, input.BoardID, input.CardID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete card", err)
		}

		broadcast(ctx, pub, event.Event{
			BoardID: input.BoardID,
			UserID:  userID,
			Payload: event.CardDeleted{CardID: input.CardID},
		})

		return nil, nil
	})
}
