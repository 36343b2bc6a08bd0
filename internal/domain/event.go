package domain

import "github.com/google/uuid"

// Board lifecycle event types. Mutation events use the command kind
// ("lane_added", "card_moved", ...).
const (
	EventBoardCreated = "board_created"
	EventBoardDeleted = "board_deleted"
)

// BoardEvent is the real-time update fanned out to board subscribers.
// Board carries the full snapshot after the change and is omitted for
// deletions. ActorID is the user whose request caused the change.
type BoardEvent struct {
	Type    string     `json:"type"`
	BoardID uuid.UUID  `json:"board_id"`
	Board   *Board     `json:"board,omitempty"`
	ActorID *uuid.UUID `json:"actor_id,omitempty"`
}

// Lifecycle reports whether the event changes the tenant's board list.
func (e BoardEvent) Lifecycle() bool {
	return e.Type == EventBoardCreated || e.Type == EventBoardDeleted
}
