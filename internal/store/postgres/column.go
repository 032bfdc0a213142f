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

type ColumnRepo struct {
	pool *pgxpool.Pool
}

func NewColumnRepo(pool *pgxpool.Pool) *ColumnRepo {
	return &ColumnRepo{pool: pool}
}

func (r *ColumnRepo) Create(ctx context.Context, c *domain.Column) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO columns (id, board_id, title, color, position)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.BoardID, c.Title, c.Color, c.Position,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Create: %w", err)
	}

	return nil
}

func (r *ColumnRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Column, error) {
	var c domain.Column

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, title, color, position
		 FROM columns WHERE board_id = $1 AND id = $2`,
		boardID, id,
	).Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", err)
	}

	return &c, nil
}

// Update applies a partial patch; nil fields keep their stored value.
func (r *ColumnRepo) Update(ctx context.Context, boardID, id uuid.UUID, patch domain.ColumnPatch) (*domain.Column, error) {
	var c domain.Column

	err := r.pool.QueryRow(ctx,
		`UPDATE columns
		 SET title    = COALESCE($3, title),
		     color    = COALESCE($4, color),
		     position = COALESCE($5, position)
		 WHERE board_id = $1 AND id = $2
		 RETURNING id, board_id, title, color, position`,
		boardID, id, patch.Title, patch.Color, patch.Position,
	).Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.Update: %w", err)
	}

	return &c, nil
}

// Delete removes the column and its cards in one transaction, matching the
// cascade the broadcast event implies.
func (r *ColumnRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("columnRepo.Delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM cards WHERE board_id = $1 AND column_id = $2`, boardID, id,
	); err != nil {
		return fmt.Errorf("columnRepo.Delete: cards: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM columns WHERE board_id = $1 AND id = $2`, boardID, id,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("columnRepo.Delete: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("columnRepo.Delete: commit: %w", err)
	}

	return nil
}

// Reorder rewrites each listed column's position to its 0-based index in the
// list. Unlisted columns keep their position.
func (r *ColumnRepo) Reorder(ctx context.Context, boardID uuid.UUID, columnIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("columnRepo.Reorder: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for idx, id := range columnIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE columns SET position = $3 WHERE board_id = $1 AND id = $2`,
			boardID, id, float64(idx),
		); err != nil {
			return fmt.Errorf("columnRepo.Reorder: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("columnRepo.Reorder: commit: %w", err)
	}

	return nil
}
