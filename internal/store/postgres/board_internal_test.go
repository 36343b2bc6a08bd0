package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kanban/internal/domain"
)

func TestCopyRows(t *testing.T) {
	t.Parallel()

	desc := "details"
	boardID := uuid.New()
	lane := domain.Lane{ID: uuid.New(), Title: "Todo", Position: 0}
	withDesc := domain.Card{ID: uuid.New(), Title: "a", Description: &desc, LaneID: lane.ID, Position: 0}
	noDesc := domain.Card{ID: uuid.New(), Title: "b", LaneID: lane.ID, Position: 1}
	b := domain.Board{ID: boardID, Title: "Board", Lanes: []domain.Lane{lane}, Cards: []domain.Card{withDesc, noDesc}}

	t.Run("lanes follow column order", func(t *testing.T) {
		t.Parallel()

		rows := laneRows(b)
		require.Len(t, rows, 1)
		require.Len(t, rows[0], len(laneColumns))
		assert.Equal(t, []any{lane.ID, boardID, "Todo", 0}, rows[0])
	})

	t.Run("cards follow column order", func(t *testing.T) {
		t.Parallel()

		rows := cardRows(b)
		require.Len(t, rows, 2)
		require.Len(t, rows[0], len(cardColumns))
		assert.Equal(t, []any{withDesc.ID, boardID, lane.ID, "a", &desc, 0}, rows[0])
	})

	t.Run("nil description stays nil", func(t *testing.T) {
		t.Parallel()

		rows := cardRows(b)
		assert.Nil(t, rows[1][4])
	})

	t.Run("empty board", func(t *testing.T) {
		t.Parallel()

		empty := domain.Board{ID: boardID, Title: "Empty"}
		assert.Empty(t, laneRows(empty))
		assert.Empty(t, cardRows(empty))
	})
}
