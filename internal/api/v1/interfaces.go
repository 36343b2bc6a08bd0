package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/board"
	"github.com/gosuda/kanban/internal/domain"
)

// BoardService abstracts board operations for handler testing.
// *board.Service satisfies this interface.
type BoardService interface {
	Create(ctx context.Context, tenantID uuid.UUID, title string) (domain.Board, error)
	Get(ctx context.Context, tenantID, boardID uuid.UUID) (domain.Board, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]domain.BoardSummary, error)
	Delete(ctx context.Context, tenantID, boardID uuid.UUID) error
	DefaultLaneID(ctx context.Context, tenantID, boardID uuid.UUID) (uuid.UUID, error)
	Apply(ctx context.Context, tenantID, boardID uuid.UUID, cmd board.Command, idempotencyKey string) (board.ApplyResult, error)
}
