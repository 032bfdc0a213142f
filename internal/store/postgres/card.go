package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowdeck/flowdeck/internal/domain"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) Create(ctx context.Context, boardID uuid.UUID, c *domain.Card) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cards (id, board_id, column_id, title, description, position)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, boardID, c.ColumnID, c.Title, c.Description, c.Position,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`SELECT id, column_id, title, description, position
		 FROM cards WHERE board_id = $1 AND id = $2`,
		boardID, id,
	).Scan(&c.ID, &c.ColumnID, &c.Title, &c.Description, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	return &c, nil
}

// Update applies a partial patch; nil fields keep their stored value.
func (r *CardRepo) Update(ctx context.Context, boardID, id uuid.UUID, patch domain.CardPatch) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`UPDATE cards
		 SET title       = COALESCE($3, title),
		     description = COALESCE($4, description),
		     column_id   = COALESCE($5, column_id),
		     position    = COALESCE($6, position)
		 WHERE board_id = $1 AND id = $2
		 RETURNING id, column_id, title, description, position`,
		boardID, id, patch.Title, patch.Description, patch.ColumnID, patch.Position,
	).Scan(&c.ID, &c.ColumnID, &c.Title, &c.Description, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.Update: %w", err)
	}

	return &c, nil
}

// Move reparents a card and sets its position in the target column.
func (r *CardRepo) Move(ctx context.Context, boardID, id, targetColumnID uuid.UUID, position float64) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`UPDATE cards SET column_id = $3, position = $4
		 WHERE board_id = $1 AND id = $2
		 RETURNING id, column_id, title, description, position`,
		boardID, id, targetColumnID, position,
	).Scan(&c.ID, &c.ColumnID, &c.Title, &c.Description, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.Move: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.Move: %w", err)
	}

	return &c, nil
}

func (r *CardRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cards WHERE board_id = $1 AND id = $2`, boardID, id,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
