package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyNickname, "tester")
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	boards  domain.BoardRepository
	columns domain.ColumnRepository
	cards   domain.CardRepository
	users   domain.UserRepository
}

func (m *mockDataStore) Boards() domain.BoardRepository   { return m.boards }
func (m *mockDataStore) Columns() domain.ColumnRepository { return m.columns }
func (m *mockDataStore) Cards() domain.CardRepository     { return m.cards }
func (m *mockDataStore) Users() domain.UserRepository     { return m.users }

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc   func(ctx context.Context, b *domain.BoardMeta) error
	getByIDFunc  func(ctx context.Context, id uuid.UUID) (*domain.BoardMeta, error)
	snapshotFunc func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	deleteFunc   func(ctx context.Context, id uuid.UUID) error
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.BoardMeta) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BoardMeta, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) Snapshot(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.snapshotFunc(ctx, id)
}

func (m *mockBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock ColumnRepository
// ---------------------------------------------------------------------------

type mockColumnRepo struct {
	createFunc  func(ctx context.Context, c *domain.Column) error
	getByIDFunc func(ctx context.Context, boardID, id uuid.UUID) (*domain.Column, error)
	updateFunc  func(ctx context.Context, boardID, id uuid.UUID, patch domain.ColumnPatch) (*domain.Column, error)
	deleteFunc  func(ctx context.Context, boardID, id uuid.UUID) error
	reorderFunc func(ctx context.Context, boardID uuid.UUID, columnIDs []uuid.UUID) error
}

func (m *mockColumnRepo) Create(ctx context.Context, c *domain.Column) error {
	return m.createFunc(ctx, c)
}

func (m *mockColumnRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Column, error) {
	return m.getByIDFunc(ctx, boardID, id)
}

func (m *mockColumnRepo) Update(ctx context.Context, boardID, id uuid.UUID, patch domain.ColumnPatch) (*domain.Column, error) {
	return m.updateFunc(ctx, boardID, id, patch)
}

func (m *mockColumnRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, boardID, id)
}

func (m *mockColumnRepo) Reorder(ctx context.Context, boardID uuid.UUID, columnIDs []uuid.UUID) error {
	return m.reorderFunc(ctx, boardID, columnIDs)
}

// ---------------------------------------------------------------------------
// Mock CardRepository
// ---------------------------------------------------------------------------

type mockCardRepo struct {
	createFunc  func(ctx context.Context, boardID uuid.UUID, c *domain.Card) error
	getByIDFunc func(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error)
	updateFunc  func(ctx context.Context, boardID, id uuid.UUID, patch domain.CardPatch) (*domain.Card, error)
	moveFunc    func(ctx context.Context, boardID, id, targetColumnID uuid.UUID, position float64) (*domain.Card, error)
	deleteFunc  func(ctx context.Context, boardID, id uuid.UUID) error
}

func (m *mockCardRepo) Create(ctx context.Context, boardID uuid.UUID, c *domain.Card) error {
	return m.createFunc(ctx, boardID, c)
}

func (m *mockCardRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, boardID, id)
}

func (m *mockCardRepo) Update(ctx context.Context, boardID, id uuid.UUID, patch domain.CardPatch) (*domain.Card, error) {
	return m.updateFunc(ctx, boardID, id, patch)
}

func (m *mockCardRepo) Move(ctx context.Context, boardID, id, targetColumnID uuid.UUID, position float64) (*domain.Card, error) {
	return m.moveFunc(ctx, boardID, id, targetColumnID, position)
}

func (m *mockCardRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	return m.deleteFunc(ctx, boardID, id)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, email, password, nickname string) (*domain.User, error)
	loginFunc    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, nickname string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, nickname)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return m.loginFunc(ctx, email, password)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher — records broadcast events for assertions
// ---------------------------------------------------------------------------

type mockPublisher struct {
	events []event.Event
	err    error
}

func (m *mockPublisher) PublishEvent(_ context.Context, ev event.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}
