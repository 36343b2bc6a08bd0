package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Board is an ordered collection of lanes, each holding an ordered collection
// of cards. Lanes and cards are flat slices linked by Card.LaneID.
type Board struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Lanes []Lane    `json:"lanes"`
	Cards []Card    `json:"cards"`
}

// Lane is a named column. Position is dense and zero-based among the lanes of a board.
type Lane struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
}

// Card is a unit of work. Position is dense and zero-based among the cards
// sharing the same LaneID.
type Card struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	LaneID      uuid.UUID `json:"lane_id"`
	Position    int       `json:"position"`
}

// BoardSummary is the listing view of a persisted board.
type BoardSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	LaneCount int       `json:"lane_count"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardRepository persists board snapshots. Every method is scoped to a tenant.
// Save replaces the stored lanes and cards wholesale (last write wins).
type BoardRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, b Board) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (Board, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]BoardSummary, error)
	Save(ctx context.Context, tenantID uuid.UUID, b Board) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
