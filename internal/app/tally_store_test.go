package app

import (
	"context"
	"testing"

	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTallyStore(t *testing.T) {
	store := NewMemoryTallyStore()
	ctx := context.Background()

	_, err := store.GetTally(ctx, 1)
	require.ErrorIs(t, err, domain.ErrTallyNotFound)

	snap := domain.TallySnapshot{
		Number:  1,
		Decided: true,
		Pass:    true,
		Tally: domain.Tally{
			Positive:    2,
			Total:       2,
			Votes:       map[string]bool{"alice": true, "bob": true},
			NonEndorsed: []string{"mallory"},
		},
	}
	require.NoError(t, store.SaveTally(ctx, snap))

	snap.Tally.Votes["carol"] = false
	snap.Tally.NonEndorsed[0] = "eve"

	got, err := store.GetTally(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got.Tally.Votes, 2)
	assert.Equal(t, []string{"mallory"}, got.Tally.NonEndorsed)
	assert.True(t, got.Pass)
}
