package board

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/domain"
)

// Validate reports the first violation of the board invariants: non-empty
// titles, unique IDs, dense lane positions, dense card positions within each
// lane, and cards referencing existing lanes.
func Validate(b domain.Board) error {
	if b.Title == "" {
		return &domain.ValidationError{Field: "board title", Reason: "must not be empty"}
	}

	seen := make(map[uuid.UUID]struct{}, len(b.Lanes)+len(b.Cards))
	lanePositions := make([]int, 0, len(b.Lanes))
	for _, l := range b.Lanes {
		if _, dup := seen[l.ID]; dup {
			return &domain.ValidationError{Field: "lane id", Reason: "duplicate " + l.ID.String()}
		}
		seen[l.ID] = struct{}{}
		if l.Title == "" {
			return &domain.ValidationError{Field: "lane title", Reason: "must not be empty"}
		}
		lanePositions = append(lanePositions, l.Position)
	}
	if err := checkDense("lane positions", lanePositions); err != nil {
		return err
	}

	cardPositions := make(map[uuid.UUID][]int, len(b.Lanes))
	for _, c := range b.Cards {
		if _, dup := seen[c.ID]; dup {
			return &domain.ValidationError{Field: "card id", Reason: "duplicate " + c.ID.String()}
		}
		seen[c.ID] = struct{}{}
		if c.Title == "" {
			return &domain.ValidationError{Field: "card title", Reason: "must not be empty"}
		}
		if !hasLane(b.Lanes, c.LaneID) {
			return &domain.ValidationError{Field: "card lane_id", Reason: fmt.Sprintf("card %s references missing lane %s", c.ID, c.LaneID)}
		}
		cardPositions[c.LaneID] = append(cardPositions[c.LaneID], c.Position)
	}
	for _, l := range b.Lanes {
		if err := checkDense("card positions in lane "+l.ID.String(), cardPositions[l.ID]); err != nil {
			return err
		}
	}

	return nil
}

// checkDense verifies positions are exactly {0..len-1}.
func checkDense(field string, positions []int) error {
	present := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || present[p] {
			return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("not dense: %v", positions)}
		}
		present[p] = true
	}
	return nil
}
