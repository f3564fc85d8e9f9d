package arena_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/arena"
)

func TestMemoryHistory_RecentNewestFirstAndBounded(t *testing.T) {
	h := arena.NewMemoryHistory(2)
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		require.NoError(t, h.Settle(ctx, arena.Resolution{CycleID: id, Number: i + 1}))
	}

	got, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Number)
	assert.Equal(t, 2, got[1].Number)

	got, err = h.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = h.Get(ctx, ids[0])
	assert.ErrorIs(t, err, arena.ErrCycleNotFound)
	r, err := h.Get(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 3, r.Number)
}
