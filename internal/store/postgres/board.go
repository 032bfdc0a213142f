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

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.BoardMeta) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, title, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Title, b.OwnerID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BoardMeta, error) {
	var b domain.BoardMeta

	err := r.pool.QueryRow(ctx,
		`SELECT id, title, owner_id, created_at, updated_at
		 FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

// Snapshot assembles the complete current state of a board: the shape served
// to clients on initial load and reconnect resync.
func (r *BoardRepo) Snapshot(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	meta, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Snapshot: %w", err)
	}

	board := &domain.Board{
		ID:      meta.ID,
		Title:   meta.Title,
		Columns: make([]domain.Column, 0),
		Cards:   make([]domain.Card, 0),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, title, color, position
		 FROM columns WHERE board_id = $1
		 ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Snapshot: columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.Position); err != nil {
			return nil, fmt.Errorf("boardRepo.Snapshot: scan column: %w", err)
		}
		board.Columns = append(board.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.Snapshot: columns: %w", err)
	}

	cardRows, err := r.pool.Query(ctx,
		`SELECT id, column_id, title, description, position
		 FROM cards WHERE board_id = $1
		 ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Snapshot: cards: %w", err)
	}
	defer cardRows.Close()

	for cardRows.Next() {
		var c domain.Card
		if err := cardRows.Scan(&c.ID, &c.ColumnID, &c.Title, &c.Description, &c.Position); err != nil {
			return nil, fmt.Errorf("boardRepo.Snapshot: scan card: %w", err)
		}
		board.Cards = append(board.Cards, c)
	}
	if err := cardRows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.Snapshot: cards: %w", err)
	}

	return board, nil
}

func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
