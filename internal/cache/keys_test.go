package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyPrefixes(t *testing.T) {
	id := uuid.New()

	require.Equal(t, "events:search:status=ACTIVE", SearchCacheKey("status=ACTIVE"))
	require.Equal(t, "event:"+id.String(), EventCacheKey(id))
	require.Equal(t, "dashboard:stats", DashboardCacheKey())
	require.Equal(t, "channel:compare:ampoule", CompareCacheKey("ampoule"))
}

func TestKeyPatternsCoverTheirPrefixes(t *testing.T) {
	require.Equal(t, "events:search:*", SearchKeyPattern())
	require.Equal(t, "channel:compare:*", CompareKeyPattern())
}

func TestDisabledCacheDegradesToMisses(t *testing.T) {
	c := &RedisCache{enabled: false}
	ctx := context.Background()

	var out string
	err := c.Get(ctx, "events:search:anything", &out)
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))

	removed, err := c.DeleteByPattern(ctx, "events:search:*")
	require.NoError(t, err)
	require.Zero(t, removed)

	require.NoError(t, c.Close())
}
