package board

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/domain"
)

// CommandKind names a board mutation. It doubles as the event type published
// after the mutation is committed.
type CommandKind string

const (
	KindAddLane     CommandKind = "lane_added"
	KindRemoveLane  CommandKind = "lane_removed"
	KindReorderLane CommandKind = "lane_reordered"
	KindAddCard     CommandKind = "card_added"
	KindRemoveCard  CommandKind = "card_removed"
	KindMoveCard    CommandKind = "card_moved"
)

// Command is a board mutation request consumed by Apply.
type Command interface {
	Kind() CommandKind
}

// AddLaneCommand appends a lane titled Title after the existing lanes.
type AddLaneCommand struct {
	Title string
}

// RemoveLaneCommand deletes a lane together with its cards. An unknown
// LaneID leaves the board unchanged.
type RemoveLaneCommand struct {
	LaneID uuid.UUID
}

// ReorderLaneCommand moves a lane to Position, clamped to the lane range.
type ReorderLaneCommand struct {
	LaneID   uuid.UUID
	Position int
}

// AddCardCommand appends a card to the end of LaneID.
type AddCardCommand struct {
	LaneID      uuid.UUID
	Title       string
	Description *string
}

// RemoveCardCommand deletes a card. An unknown CardID leaves the board unchanged.
type RemoveCardCommand struct {
	CardID uuid.UUID
}

// MoveCardCommand places a card at Position within TargetLaneID, which may
// be the lane the card is already in.
type MoveCardCommand struct {
	CardID       uuid.UUID
	TargetLaneID uuid.UUID
	Position     int
}

func (AddLaneCommand) Kind() CommandKind     { return KindAddLane }
func (RemoveLaneCommand) Kind() CommandKind  { return KindRemoveLane }
func (ReorderLaneCommand) Kind() CommandKind { return KindReorderLane }
func (AddCardCommand) Kind() CommandKind     { return KindAddCard }
func (RemoveCardCommand) Kind() CommandKind  { return KindRemoveCard }
func (MoveCardCommand) Kind() CommandKind    { return KindMoveCard }

// Apply is the board reducer: it runs cmd against b through the engine and
// returns the resulting board.
func Apply(b domain.Board, cmd Command) (domain.Board, error) {
	switch c := cmd.(type) {
	case AddLaneCommand:
		return AddLane(b, c.Title)
	case RemoveLaneCommand:
		return RemoveLane(b, c.LaneID), nil
	case ReorderLaneCommand:
		return ReorderLane(b, c.LaneID, c.Position), nil
	case AddCardCommand:
		return AddCard(b, c.LaneID, c.Title, c.Description)
	case RemoveCardCommand:
		return RemoveCard(b, c.CardID), nil
	case MoveCardCommand:
		return MoveCard(b, c.CardID, c.TargetLaneID, c.Position)
	default:
		return domain.Board{}, &domain.ValidationError{Field: "command", Reason: fmt.Sprintf("unsupported command %T", cmd)}
	}
}
