package character_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/srd/internal/game/character"
)

func TestMemoryStore_CreateReadApply(t *testing.T) {
	ctx := context.Background()
	store := character.NewMemoryStore()
	require.NoError(t, store.Create(ctx, fighterOne()))
	require.Error(t, store.Create(ctx, fighterOne()), "duplicate id")

	got, err := store.Read(ctx, "c1")
	require.NoError(t, err)
	got.Name = "changed"

	again, err := store.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Tordek", again.Name, "Read must return a copy")

	err = store.ApplyMutations(ctx, "c1", character.Mutations{
		AppendLevels: []character.LevelEntry{{ClassID: "fighter", HPRolled: 9}},
	})
	require.NoError(t, err)
	after, err := store.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, after.Level())
}

func TestMemoryStore_FailedBatchLeavesRecord(t *testing.T) {
	ctx := context.Background()
	store := character.NewMemoryStore()
	require.NoError(t, store.Create(ctx, fighterOne()))
	err := store.ApplyMutations(ctx, "c1", character.Mutations{
		AppendLevels: []character.LevelEntry{{ClassID: "fighter", HPRolled: 9}},
		PopLevels:    5,
	})
	require.ErrorIs(t, err, character.ErrInvalidMutation)
	after, err := store.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Level())
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := character.NewMemoryStore()
	_, err := store.Read(context.Background(), "ghost")
	assert.ErrorIs(t, err, character.ErrNotFound)
	assert.ErrorIs(t, store.ApplyMutations(context.Background(), "ghost", character.Mutations{}), character.ErrNotFound)
}
