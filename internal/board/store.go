package board

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/domain"
)

// CommitFunc persists a transition before the Store adopts it. A non-nil
// error aborts the dispatch and leaves the held snapshot unchanged.
type CommitFunc func(ctx context.Context, prev, next domain.Board) error

// Event is delivered to observers after a dispatch is committed.
type Event struct {
	Kind  CommandKind
	Board domain.Board
}

// Observer receives committed events in dispatch order, with the context of
// the dispatch that produced them. Observers run after the write lock is
// released; they may read the Store but must not Dispatch.
type Observer func(ctx context.Context, ev Event)

type observerEntry struct {
	id int
	fn Observer
}

// Store is the single stateful shell around the engine: it holds the live
// board, applies commands one at a time and exposes sorted read accessors.
type Store struct {
	mu               sync.RWMutex
	board            domain.Board
	defaultLaneIndex int
	commit           CommitFunc
	observers        []observerEntry
	nextObserverID   int

	// delivered is closed once observers have seen the latest committed event.
	delivered chan struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDefaultLaneIndex sets the index into the sorted lanes used by DefaultLaneID.
func WithDefaultLaneIndex(i int) StoreOption {
	return func(s *Store) { s.defaultLaneIndex = i }
}

// WithCommit installs a hook that runs before each transition is adopted.
func WithCommit(fn CommitFunc) StoreOption {
	return func(s *Store) { s.commit = fn }
}

// NewStore returns a Store holding b.
func NewStore(b domain.Board, opts ...StoreOption) *Store {
	s := &Store{board: cloneBoard(b)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the held board.
func (s *Store) Snapshot() domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBoard(s.board)
}

// Lanes returns the lanes sorted by position.
func (s *Store) Lanes() []domain.Lane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedLanes(s.board.Lanes)
}

// CardsInLane returns the lane's cards sorted by position.
func (s *Store) CardsInLane(laneID uuid.UUID) []domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make([]domain.Card, 0)
	for _, c := range s.board.Cards {
		if c.LaneID == laneID {
			cards = append(cards, copyCard(c))
		}
	}
	sortCards(cards)
	return cards
}

// DefaultLaneID returns the ID of the lane at the configured index into the
// sorted lanes. It reports false when the board has too few lanes.
func (s *Store) DefaultLaneID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lanes := sortedLanes(s.board.Lanes)
	if s.defaultLaneIndex < 0 || s.defaultLaneIndex >= len(lanes) {
		return uuid.Nil, false
	}
	return lanes[s.defaultLaneIndex].ID, true
}

// Dispatch applies cmd to the held board. The commit hook runs under the
// write lock, so transitions are adopted strictly one at a time. Observers
// are notified after the lock is released, in commit order.
func (s *Store) Dispatch(ctx context.Context, cmd Command) (domain.Board, error) {
	s.mu.Lock()

	next, err := Apply(s.board, cmd)
	if err != nil {
		s.mu.Unlock()
		return domain.Board{}, err
	}

	if s.commit != nil {
		if err := s.commit(ctx, cloneBoard(s.board), cloneBoard(next)); err != nil {
			s.mu.Unlock()
			return domain.Board{}, fmt.Errorf("board.Store.Dispatch: commit: %w", err)
		}
	}

	s.board = next
	observers := slices.Clone(s.observers)
	prev := s.delivered
	done := make(chan struct{})
	s.delivered = done
	s.mu.Unlock()

	notify(ctx, prev, done, observers, Event{Kind: cmd.Kind(), Board: next})

	return cloneBoard(next), nil
}

// notify waits for the previous event's delivery, then hands ev to each
// observer and marks its own delivery done.
func notify(ctx context.Context, prev <-chan struct{}, done chan<- struct{}, observers []observerEntry, ev Event) {
	defer close(done)
	if prev != nil {
		<-prev
	}
	for _, o := range observers {
		o.fn(ctx, Event{Kind: ev.Kind, Board: cloneBoard(ev.Board)})
	}
}

// Subscribe registers fn for committed events. The returned function removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObserverID
	s.nextObserverID++
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(e observerEntry) bool { return e.id == id })
	}
}

func sortedLanes(lanes []domain.Lane) []domain.Lane {
	out := slices.Clone(lanes)
	if out == nil {
		out = []domain.Lane{}
	}
	sortLanes(out)
	return out
}

// Sorted returns a copy of b with lanes ordered by position and cards
// grouped by lane in lane order, each group ordered by position.
func Sorted(b domain.Board) domain.Board {
	out := cloneBoard(b)
	sortLanes(out.Lanes)

	laneRank := make(map[uuid.UUID]int, len(out.Lanes))
	for i, l := range out.Lanes {
		laneRank[l.ID] = i
	}
	slices.SortStableFunc(out.Cards, func(x, y domain.Card) int {
		if c := cmp.Compare(laneRank[x.LaneID], laneRank[y.LaneID]); c != 0 {
			return c
		}
		return cmp.Compare(x.Position, y.Position)
	})
	return out
}
