package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedRepo_GetActiveDefinitions(t *testing.T) {
	ctx := context.Background()
	repo := newRepoMock()
	repo.Definitions["user1"] = DefaultDefinitions("user1")
	cached := NewCachedRepo(repo, 1024*1024)

	definitions, err := cached.GetActiveDefinitions(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, definitions, len(DefaultDefinitions("user1")))
	assert.Equal(t, 1, repo.GetActiveCalls)

	// second read is served from the cache
	definitionsAgain, err := cached.GetActiveDefinitions(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, definitions, definitionsAgain)
	assert.Equal(t, 1, repo.GetActiveCalls)

	// a different user is a different cache entry
	_, err = cached.GetActiveDefinitions(ctx, "user2")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.GetActiveCalls)
}

func TestCachedRepo_SeedInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := newRepoMock()
	cached := NewCachedRepo(repo, 1024*1024)

	// empty catalog gets cached too
	definitions, err := cached.GetActiveDefinitions(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, definitions)
	assert.Equal(t, 1, repo.GetActiveCalls)

	require.NoError(t, cached.SeedDefaultDefinitions(ctx, "user1"))
	assert.Equal(t, 1, repo.SeedCalls)

	// the seed dropped the cached empty catalog
	definitions, err = cached.GetActiveDefinitions(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, definitions, len(DefaultDefinitions("user1")))
	assert.Equal(t, 2, repo.GetActiveCalls)
}
