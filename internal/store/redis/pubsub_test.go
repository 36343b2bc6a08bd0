package redis_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kanban/internal/domain"
	redisstore "github.com/gosuda/kanban/internal/store/redis"
)

func newTestPubSub(t *testing.T) (*redisstore.PubSub, *miniredis.Miniredis) {
	t.Helper()

	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	ps, err := redisstore.New(context.Background(), m.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	return ps, m
}

func TestBoardChannel(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	boardID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		got := redisstore.BoardChannel(tenantID, boardID)
		assert.Equal(t, "board:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee:11111111-2222-3333-4444-555555555555", got)
	})

	t.Run("nil UUIDs", func(t *testing.T) {
		t.Parallel()

		got := redisstore.BoardChannel(uuid.Nil, uuid.Nil)
		assert.Equal(t, "board:00000000-0000-0000-0000-000000000000:00000000-0000-0000-0000-000000000000", got)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		got := redisstore.BoardChannel(tenantID, boardID)
		assert.True(t, strings.HasPrefix(got, "board:"), "expected prefix 'board:', got %q", got)
	})

	t.Run("different boards produce different channels", func(t *testing.T) {
		t.Parallel()

		other := uuid.MustParse("99999999-8888-7777-6666-555544443333")
		assert.NotEqual(t, redisstore.BoardChannel(tenantID, boardID), redisstore.BoardChannel(tenantID, other))
	})

	t.Run("different tenants produce different channels", func(t *testing.T) {
		t.Parallel()

		other := uuid.MustParse("99999999-8888-7777-6666-555544443333")
		assert.NotEqual(t, redisstore.BoardChannel(tenantID, boardID), redisstore.BoardChannel(other, boardID))
	})
}

func TestTenantChannel(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		got := redisstore.TenantChannel(tenantID)
		assert.Equal(t, "tenant:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", got)
	})

	t.Run("nil UUID", func(t *testing.T) {
		t.Parallel()

		got := redisstore.TenantChannel(uuid.Nil)
		assert.Equal(t, "tenant:00000000-0000-0000-0000-000000000000", got)
	})

	t.Run("does not collide with board channel", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, redisstore.TenantChannel(tenantID), redisstore.BoardChannel(tenantID, tenantID))
	})
}

func subscribe(t *testing.T, ps *redisstore.PubSub, channel string) <-chan []byte {
	t.Helper()

	messages, cleanup, err := ps.Subscribe(t.Context(), channel)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return messages
}

func receive(t *testing.T, messages <-chan []byte, wait time.Duration) (domain.BoardEvent, bool) {
	t.Helper()

	select {
	case msg, ok := <-messages:
		if !ok {
			return domain.BoardEvent{}, false
		}
		var ev domain.BoardEvent
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev, true
	case <-time.After(wait):
		return domain.BoardEvent{}, false
	}
}

func TestPubSub_PublishBoardEvent_Routing(t *testing.T) {
	t.Parallel()

	actor := uuid.New()

	tests := []struct {
		name         string
		eventType    string
		wantOnTenant bool
	}{
		{name: "created reaches tenant list", eventType: domain.EventBoardCreated, wantOnTenant: true},
		{name: "deleted reaches tenant list", eventType: domain.EventBoardDeleted, wantOnTenant: true},
		{name: "card move stays on board", eventType: "card_moved", wantOnTenant: false},
		{name: "lane add stays on board", eventType: "lane_added", wantOnTenant: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ps, _ := newTestPubSub(t)
			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tenantID := uuid.New()
			boardID := uuid.New()
			boardMsgs := subscribe(t, ps, redisstore.BoardChannel(tenantID, boardID))
			tenantMsgs := subscribe(t, ps, redisstore.TenantChannel(tenantID))

			ev := domain.BoardEvent{Type: tt.eventType, BoardID: boardID, ActorID: &actor}
			require.NoError(t, ps.PublishBoardEvent(ctx, tenantID, ev))

			got, ok := receive(t, boardMsgs, 2*time.Second)
			require.True(t, ok, "board channel must receive every event")
			assert.Equal(t, tt.eventType, got.Type)
			assert.Equal(t, boardID, got.BoardID)
			require.NotNil(t, got.ActorID)
			assert.Equal(t, actor, *got.ActorID)

			wait := 2 * time.Second
			if !tt.wantOnTenant {
				wait = 200 * time.Millisecond
			}
			_, ok = receive(t, tenantMsgs, wait)
			assert.Equal(t, tt.wantOnTenant, ok)
		})
	}
}

func TestPubSub_PublishBoardEvent_OtherTenantIsolated(t *testing.T) {
	t.Parallel()

	ps, _ := newTestPubSub(t)
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	boardID := uuid.New()
	other := subscribe(t, ps, redisstore.TenantChannel(uuid.New()))

	require.NoError(t, ps.PublishBoardEvent(ctx, uuid.New(), domain.BoardEvent{Type: domain.EventBoardCreated, BoardID: boardID}))

	_, ok := receive(t, other, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestPubSub_PublishBoardEvent_ServerGone(t *testing.T) {
	t.Parallel()

	ps, m := newTestPubSub(t)
	m.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	err := ps.PublishBoardEvent(ctx, uuid.New(), domain.BoardEvent{Type: "lane_added", BoardID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.PubSub.PublishBoardEvent lane_added")
}

func TestPubSub_SubscribeClosesOnCancel(t *testing.T) {
	t.Parallel()

	ps, _ := newTestPubSub(t)

	ctx, cancel := context.WithCancel(context.Background())
	messages, cleanup, err := ps.Subscribe(ctx, "board:test")
	require.NoError(t, err)
	defer cleanup()

	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(5 * time.Second):
		t.Fatal("subscription channel was not closed")
	}
}

func TestNew_UnreachableServer(t *testing.T) {
	t.Parallel()

	m, err := miniredis.Run()
	require.NoError(t, err)
	addr := m.Addr()
	m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ps, err := redisstore.New(ctx, addr, "", 0)
	require.Error(t, err)
	assert.Nil(t, ps)
	assert.Contains(t, err.Error(), "redis.New: ping")
}
