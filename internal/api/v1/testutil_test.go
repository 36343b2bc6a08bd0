package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/auth"
	"github.com/gosuda/kanban/internal/board"
	"github.com/gosuda/kanban/internal/domain"
)

// ---------------------------------------------------------------------------
// tenantCtx injects the tenant into the context passed to DoCtx.
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{TenantID: tenantID, UserID: uuid.New()})
}

// ---------------------------------------------------------------------------
// Mock BoardService
// ---------------------------------------------------------------------------

type mockBoardService struct {
	createFunc        func(ctx context.Context, tenantID uuid.UUID, title string) (domain.Board, error)
	getFunc           func(ctx context.Context, tenantID, boardID uuid.UUID) (domain.Board, error)
	listFunc          func(ctx context.Context, tenantID uuid.UUID) ([]domain.BoardSummary, error)
	deleteFunc        func(ctx context.Context, tenantID, boardID uuid.UUID) error
	defaultLaneIDFunc func(ctx context.Context, tenantID, boardID uuid.UUID) (uuid.UUID, error)
	applyFunc         func(ctx context.Context, tenantID, boardID uuid.UUID, cmd board.Command, key string) (board.ApplyResult, error)
}

func (m *mockBoardService) Create(ctx context.Context, tenantID uuid.UUID, title string) (domain.Board, error) {
	return m.createFunc(ctx, tenantID, title)
}

func (m *mockBoardService) Get(ctx context.Context, tenantID, boardID uuid.UUID) (domain.Board, error) {
	return m.getFunc(ctx, tenantID, boardID)
}

func (m *mockBoardService) List(ctx context.Context, tenantID uuid.UUID) ([]domain.BoardSummary, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockBoardService) Delete(ctx context.Context, tenantID, boardID uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, boardID)
}

func (m *mockBoardService) DefaultLaneID(ctx context.Context, tenantID, boardID uuid.UUID) (uuid.UUID, error) {
	return m.defaultLaneIDFunc(ctx, tenantID, boardID)
}

func (m *mockBoardService) Apply(ctx context.Context, tenantID, boardID uuid.UUID, cmd board.Command, key string) (board.ApplyResult, error) {
	return m.applyFunc(ctx, tenantID, boardID, cmd, key)
}

// applyEngine returns an applyFunc that runs commands through the real
// engine against *b, recording the last command and idempotency key.
func applyEngine(b *domain.Board, lastCmd *board.Command, lastKey *string) func(context.Context, uuid.UUID, uuid.UUID, board.Command, string) (board.ApplyResult, error) {
	return func(_ context.Context, _, _ uuid.UUID, cmd board.Command, key string) (board.ApplyResult, error) {
		if lastCmd != nil {
			*lastCmd = cmd
		}
		if lastKey != nil {
			*lastKey = key
		}
		next, err := board.Apply(*b, cmd)
		if err != nil {
			return board.ApplyResult{}, err
		}
		*b = next
		return board.ApplyResult{Board: next}, nil
	}
}
