package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/srd/internal/storage/postgres"
	"github.com/cory-johannsen/srd/internal/testutil"
)

func TestPool_CheckSchema(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	err := pc.Pool.CheckSchema(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrSchemaMissing)

	pc.ApplyMigrations(t)
	require.NoError(t, pc.Pool.CheckSchema(ctx))

	repo := pc.Pool.Characters()
	_, err = repo.Read(ctx, "missing")
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}
