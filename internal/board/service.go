package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/kanban/internal/auth"
	"github.com/gosuda/kanban/internal/domain"
)

const (
	// loadTimeout bounds a board load shared by concurrent first readers.
	loadTimeout = 10 * time.Second
	// publishTimeout bounds fan-out of one event once the caller is done.
	publishTimeout = 5 * time.Second
)

// Publisher fans board events out to subscribers of the tenant and board.
type Publisher interface {
	PublishBoardEvent(ctx context.Context, tenantID uuid.UUID, ev domain.BoardEvent) error
}

// Deduper records idempotency keys. Add reports true when key is new within scope.
type Deduper interface {
	Add(ctx context.Context, scope, key string) (bool, error)
	Remove(ctx context.Context, scope, key string) error
}

// Options configures board creation defaults.
type Options struct {
	DefaultLanes     []string
	DefaultLaneIndex int
}

// ApplyResult is the outcome of Service.Apply. Replayed is set when the
// idempotency key had already been used and the command was not re-applied.
type ApplyResult struct {
	Board    domain.Board
	Replayed bool
}

type storeKey struct {
	tenantID uuid.UUID
	boardID  uuid.UUID
}

// Service is the board collaborator layer: it keeps one Store per board,
// persists each committed transition and fans events out over pub/sub.
type Service struct {
	repo    domain.BoardRepository
	pubsub  Publisher
	deduper Deduper // nil disables idempotency keys
	opts    Options

	loads singleflight.Group

	mu     sync.Mutex
	stores map[storeKey]*Store
	// evictions counts Deletes so a load racing one does not cache a dead board.
	evictions uint64
}

func NewService(repo domain.BoardRepository, pubsub Publisher, deduper Deduper, opts Options) *Service {
	return &Service{
		repo:    repo,
		pubsub:  pubsub,
		deduper: deduper,
		opts:    opts,
		stores:  make(map[storeKey]*Store),
	}
}

// Create builds a board seeded with the default lanes and persists it.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, title string) (domain.Board, error) {
	b, err := CreateBoardWithLanes(title, s.opts.DefaultLanes)
	if err != nil {
		return domain.Board{}, fmt.Errorf("board.Service.Create: %w", err)
	}

	if err := s.repo.Create(ctx, tenantID, b); err != nil {
		return domain.Board{}, fmt.Errorf("board.Service.Create: %w", err)
	}

	s.publish(ctx, tenantID, domain.BoardEvent{Type: domain.EventBoardCreated, BoardID: b.ID, Board: &b})
	logEvent(ctx, log.Info(), tenantID, b.ID).Msg("board created")

	return b, nil
}

// Get returns the current snapshot of a board.
func (s *Service) Get(ctx context.Context, tenantID, boardID uuid.UUID) (domain.Board, error) {
	st, err := s.storeFor(ctx, tenantID, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	return st.Snapshot(), nil
}

// List returns summaries of the tenant's boards.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]domain.BoardSummary, error) {
	boards, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("board.Service.List: %w", err)
	}
	return boards, nil
}

// Delete removes a board and drops its in-memory Store.
func (s *Service) Delete(ctx context.Context, tenantID, boardID uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, boardID); err != nil {
		return fmt.Errorf("board.Service.Delete: %w", err)
	}

	s.mu.Lock()
	s.evictions++
	if _, ok := s.stores[storeKey{tenantID, boardID}]; ok {
		delete(s.stores, storeKey{tenantID, boardID})
		storesLoaded.Dec()
	}
	s.mu.Unlock()

	s.publish(ctx, tenantID, domain.BoardEvent{Type: domain.EventBoardDeleted, BoardID: boardID})
	logEvent(ctx, log.Info(), tenantID, boardID).Msg("board deleted")
	return nil
}

// DefaultLaneID returns the lane new cards land in when no lane is given.
func (s *Service) DefaultLaneID(ctx context.Context, tenantID, boardID uuid.UUID) (uuid.UUID, error) {
	st, err := s.storeFor(ctx, tenantID, boardID)
	if err != nil {
		return uuid.Nil, err
	}

	id, ok := st.DefaultLaneID()
	if !ok {
		return uuid.Nil, &domain.ValidationError{Field: "lane_id", Reason: "required: board has no default lane"}
	}
	return id, nil
}

// Apply dispatches cmd against the board. With a non-empty idempotencyKey a
// repeated request returns the current snapshot without re-applying cmd.
func (s *Service) Apply(ctx context.Context, tenantID, boardID uuid.UUID, cmd Command, idempotencyKey string) (ApplyResult, error) {
	start := time.Now()
	kind := string(cmd.Kind())

	st, err := s.storeFor(ctx, tenantID, boardID)
	if err != nil {
		mutationsTotal.WithLabelValues(kind, outcomeOf(err)).Inc()
		return ApplyResult{}, err
	}

	scope := tenantID.String() + ":" + boardID.String()
	keyed := idempotencyKey != "" && s.deduper != nil
	if keyed {
		added, dedupErr := s.deduper.Add(ctx, scope, idempotencyKey)
		if dedupErr != nil {
			mutationsTotal.WithLabelValues(kind, outcomeError).Inc()
			return ApplyResult{}, fmt.Errorf("board.Service.Apply: idempotency: %w", dedupErr)
		}
		if !added {
			mutationsTotal.WithLabelValues(kind, outcomeReplayed).Inc()
			return ApplyResult{Board: st.Snapshot(), Replayed: true}, nil
		}
	}

	next, err := st.Dispatch(ctx, cmd)
	mutationsTotal.WithLabelValues(kind, outcomeOf(err)).Inc()
	if err != nil {
		if keyed {
			if rmErr := s.deduper.Remove(ctx, scope, idempotencyKey); rmErr != nil {
				log.Warn().Err(rmErr).Str("board_id", boardID.String()).Msg("board.Service.Apply: failed to release idempotency key")
			}
		}
		return ApplyResult{}, fmt.Errorf("board.Service.Apply: %w", err)
	}

	mutationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	logEvent(ctx, log.Debug(), tenantID, boardID).
		Str("kind", kind).
		Msg("board mutation committed")

	return ApplyResult{Board: next}, nil
}

// storeFor returns the cached Store for a board, loading it on first use.
// Concurrent first readers of one board share a single load; readers of
// other boards never wait on it.
func (s *Service) storeFor(ctx context.Context, tenantID, boardID uuid.UUID) (*Store, error) {
	key := storeKey{tenantID, boardID}

	s.mu.Lock()
	st, ok := s.stores[key]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	ch := s.loads.DoChan(tenantID.String()+":"+boardID.String(), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(loadCtx, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Store), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("board.Service: load %s: %w", boardID, ctx.Err())
	}
}

func (s *Service) load(ctx context.Context, key storeKey) (*Store, error) {
	s.mu.Lock()
	if st, ok := s.stores[key]; ok {
		s.mu.Unlock()
		return st, nil
	}
	evictions := s.evictions
	s.mu.Unlock()

	b, err := s.repo.GetByID(ctx, key.tenantID, key.boardID)
	if err != nil {
		return nil, fmt.Errorf("board.Service: load %s: %w", key.boardID, err)
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("board.Service: stored board %s is inconsistent: %w", key.boardID, err)
	}

	st := s.newStore(key, b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evictions != evictions {
		// A Delete ran during the load; serve this caller without caching.
		return st, nil
	}
	s.stores[key] = st
	storesLoaded.Inc()
	return st, nil
}

func (s *Service) newStore(key storeKey, b domain.Board) *Store {
	st := NewStore(b,
		WithDefaultLaneIndex(s.opts.DefaultLaneIndex),
		WithCommit(func(ctx context.Context, _, next domain.Board) error {
			return s.repo.Save(ctx, key.tenantID, next)
		}),
	)
	st.Subscribe(func(ctx context.Context, ev Event) {
		s.publish(ctx, key.tenantID, domain.BoardEvent{Type: string(ev.Kind), BoardID: key.boardID, Board: &ev.Board})
	})
	return st
}

// publish stamps ev with the acting user and fans it out. Failures are
// logged; the change is already committed.
func (s *Service) publish(ctx context.Context, tenantID uuid.UUID, ev domain.BoardEvent) {
	if s.pubsub == nil {
		return
	}
	if actor, ok := auth.UserIDFromContext(ctx); ok {
		ev.ActorID = &actor
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pubsub.PublishBoardEvent(pubCtx, tenantID, ev); err != nil {
		logEvent(ctx, log.Warn(), tenantID, ev.BoardID).Err(err).Str("type", ev.Type).Msg("board.Service: failed to publish event")
	}
}

// logEvent adds the board and, when known, the acting user to e.
func logEvent(ctx context.Context, e *zerolog.Event, tenantID, boardID uuid.UUID) *zerolog.Event {
	e = e.Str("tenant_id", tenantID.String()).Str("board_id", boardID.String())
	if actor, ok := auth.UserIDFromContext(ctx); ok {
		e = e.Str("actor_id", actor.String())
	}
	return e
}
