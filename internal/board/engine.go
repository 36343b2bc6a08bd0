// Package board implements the kanban board mutation engine and the stateful
// shells built around it.
//
// The engine functions are pure: they take a domain.Board value plus
// operation arguments and return a new Board whose slices are freshly
// allocated. The input is never written to. Lane positions stay dense
// (0..N-1) across the board and card positions stay dense within each lane.
//
// Unknown IDs are handled asymmetrically on purpose. RemoveLane, ReorderLane
// and RemoveCard treat a missing target as already done and return the board
// unchanged, while AddCard and MoveCard report a *domain.NotFoundError.
package board

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/domain"
)

// CreateBoard returns an empty board with a fresh ID.
func CreateBoard(title string) (domain.Board, error) {
	if err := requireTitle("board title", title); err != nil {
		return domain.Board{}, err
	}
	return domain.Board{
		ID:    uuid.New(),
		Title: title,
		Lanes: []domain.Lane{},
		Cards: []domain.Card{},
	}, nil
}

// CreateBoardWithLanes returns a board seeded with one lane per title,
// positioned 0..k-1 in the given order.
func CreateBoardWithLanes(title string, laneTitles []string) (domain.Board, error) {
	b, err := CreateBoard(title)
	if err != nil {
		return domain.Board{}, err
	}

	lanes := make([]domain.Lane, 0, len(laneTitles))
	for i, lt := range laneTitles {
		if err := requireTitle("lane title", lt); err != nil {
			return domain.Board{}, err
		}
		lanes = append(lanes, domain.Lane{ID: uuid.New(), Title: lt, Position: i})
	}
	b.Lanes = lanes

	return b, nil
}

// AddLane appends a lane at position len(b.Lanes).
func AddLane(b domain.Board, title string) (domain.Board, error) {
	if err := requireTitle("lane title", title); err != nil {
		return domain.Board{}, err
	}

	lanes := make([]domain.Lane, len(b.Lanes), len(b.Lanes)+1)
	copy(lanes, b.Lanes)
	lanes = append(lanes, domain.Lane{ID: uuid.New(), Title: title, Position: len(b.Lanes)})

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: lanes, Cards: cloneCards(b.Cards)}, nil
}

// RemoveLane deletes the lane and every card in it, then renumbers the
// remaining lanes by their previous order. Unknown IDs are a no-op.
func RemoveLane(b domain.Board, laneID uuid.UUID) domain.Board {
	if !hasLane(b.Lanes, laneID) {
		return unchanged(b)
	}

	lanes := make([]domain.Lane, 0, len(b.Lanes)-1)
	for _, l := range b.Lanes {
		if l.ID != laneID {
			lanes = append(lanes, l)
		}
	}
	sortLanes(lanes)
	renumberLanes(lanes)

	cards := make([]domain.Card, 0, len(b.Cards))
	for _, c := range b.Cards {
		if c.LaneID != laneID {
			cards = append(cards, copyCard(c))
		}
	}

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: lanes, Cards: cards}
}

// ReorderLane moves the lane to target among all lanes. target is clamped to
// [0, len(lanes)-1]. Unknown IDs are a no-op.
func ReorderLane(b domain.Board, laneID uuid.UUID, target int) domain.Board {
	i := slices.IndexFunc(b.Lanes, func(l domain.Lane) bool { return l.ID == laneID })
	if i < 0 {
		return unchanged(b)
	}
	moving := b.Lanes[i]

	others := make([]domain.Lane, 0, len(b.Lanes))
	for _, l := range b.Lanes {
		if l.ID != laneID {
			others = append(others, l)
		}
	}
	sortLanes(others)

	lanes := slices.Insert(others, clamp(target, 0, len(others)), moving)
	renumberLanes(lanes)

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: lanes, Cards: cloneCards(b.Cards)}
}

// AddCard appends a card to the end of the lane.
func AddCard(b domain.Board, laneID uuid.UUID, title string, description *string) (domain.Board, error) {
	if err := requireTitle("card title", title); err != nil {
		return domain.Board{}, err
	}
	if !hasLane(b.Lanes, laneID) {
		return domain.Board{}, &domain.NotFoundError{Kind: "lane", ID: laneID}
	}

	position := 0
	for _, c := range b.Cards {
		if c.LaneID == laneID {
			position++
		}
	}

	cards := make([]domain.Card, 0, len(b.Cards)+1)
	cards = append(cards, cloneCards(b.Cards)...)
	cards = append(cards, domain.Card{
		ID:          uuid.New(),
		Title:       title,
		Description: copyString(description),
		LaneID:      laneID,
		Position:    position,
	})

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: slices.Clone(b.Lanes), Cards: cards}, nil
}

// RemoveCard deletes the card and renumbers the rest of its lane. Cards in
// other lanes keep their positions. Unknown IDs are a no-op.
func RemoveCard(b domain.Board, cardID uuid.UUID) domain.Board {
	i := slices.IndexFunc(b.Cards, func(c domain.Card) bool { return c.ID == cardID })
	if i < 0 {
		return unchanged(b)
	}
	laneID := b.Cards[i].LaneID

	cards := make([]domain.Card, 0, len(b.Cards)-1)
	var lane []domain.Card
	for j, c := range b.Cards {
		switch {
		case j == i:
		case c.LaneID == laneID:
			lane = append(lane, copyCard(c))
		default:
			cards = append(cards, copyCard(c))
		}
	}
	sortCards(lane)
	renumberCards(lane)

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: slices.Clone(b.Lanes), Cards: append(cards, lane...)}
}

// MoveCard relocates a card to position target within targetLaneID.
//
// Across lanes, the source lane is renumbered by its previous order and the
// card is spliced into the target lane's ordered cards. Within one lane the
// card is removed and reinserted, so the lane is reordered rather than
// appended to. target is clamped to [0, len(target lane cards without the card)].
func MoveCard(b domain.Board, cardID, targetLaneID uuid.UUID, target int) (domain.Board, error) {
	i := slices.IndexFunc(b.Cards, func(c domain.Card) bool { return c.ID == cardID })
	if i < 0 {
		return domain.Board{}, &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	if !hasLane(b.Lanes, targetLaneID) {
		return domain.Board{}, &domain.NotFoundError{Kind: "lane", ID: targetLaneID}
	}

	moving := copyCard(b.Cards[i])
	sourceLaneID := moving.LaneID

	var untouched, source, dest []domain.Card
	for j, c := range b.Cards {
		switch {
		case j == i:
		case c.LaneID == targetLaneID:
			dest = append(dest, copyCard(c))
		case c.LaneID == sourceLaneID:
			source = append(source, copyCard(c))
		default:
			untouched = append(untouched, copyCard(c))
		}
	}

	sortCards(source)
	renumberCards(source)

	sortCards(dest)
	moving.LaneID = targetLaneID
	dest = slices.Insert(dest, clamp(target, 0, len(dest)), moving)
	renumberCards(dest)

	cards := make([]domain.Card, 0, len(b.Cards))
	cards = append(cards, untouched...)
	cards = append(cards, source...)
	cards = append(cards, dest...)

	return domain.Board{ID: b.ID, Title: b.Title, Lanes: slices.Clone(b.Lanes), Cards: cards}, nil
}

func requireTitle(field, title string) error {
	if title == "" {
		return &domain.ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

func hasLane(lanes []domain.Lane, id uuid.UUID) bool {
	return slices.ContainsFunc(lanes, func(l domain.Lane) bool { return l.ID == id })
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func sortLanes(lanes []domain.Lane) {
	slices.SortStableFunc(lanes, func(a, b domain.Lane) int { return cmp.Compare(a.Position, b.Position) })
}

func sortCards(cards []domain.Card) {
	slices.SortStableFunc(cards, func(a, b domain.Card) int { return cmp.Compare(a.Position, b.Position) })
}

func renumberLanes(lanes []domain.Lane) {
	for i := range lanes {
		lanes[i].Position = i
	}
}

func renumberCards(cards []domain.Card) {
	for i := range cards {
		cards[i].Position = i
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyCard(c domain.Card) domain.Card {
	c.Description = copyString(c.Description)
	return c
}

func cloneCards(cards []domain.Card) []domain.Card {
	out := make([]domain.Card, len(cards))
	for i, c := range cards {
		out[i] = copyCard(c)
	}
	return out
}

// unchanged copies b for a no-op operation. Nil slices stay nil so the
// result is deep-equal to the input.
func unchanged(b domain.Board) domain.Board {
	var cards []domain.Card
	if b.Cards != nil {
		cards = cloneCards(b.Cards)
	}
	return domain.Board{ID: b.ID, Title: b.Title, Lanes: slices.Clone(b.Lanes), Cards: cards}
}

func cloneBoard(b domain.Board) domain.Board {
	lanes := slices.Clone(b.Lanes)
	if lanes == nil {
		lanes = []domain.Lane{}
	}
	return domain.Board{ID: b.ID, Title: b.Title, Lanes: lanes, Cards: cloneCards(b.Cards)}
}
