package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/comment-tree-api/internal/config"
	"github.com/comment-tree-api/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() models.NestedCommentReply {
	return models.NestedCommentReply{
		Comments: []models.NestedCommentReply{
			{Comment: &models.CommentReply{ID: 1, User: "alice", Body: "hi", LikeCount: 2}},
		},
	}.WithMaxDepth(5)
}

// exerciseBackend runs the behaviour every backend must share
func exerciseBackend(t *testing.T, c Cache) {
	ctx := context.Background()

	var got models.NestedCommentReply
	ok, err := c.Get(ctx, NamespaceFullTree, Key(0, 5), &got)
	require.NoError(t, err)
	assert.False(t, ok)

	treeGen, err := c.Generation(ctx, NamespaceFullTree)
	require.NoError(t, err)
	usersGen, err := c.Generation(ctx, NamespaceUsers)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, NamespaceFullTree, Key(0, 5), sampleTree(), treeGen))
	require.NoError(t, c.Set(ctx, NamespaceUsers, Key(1, "LIKE", 0, 10), []string{"bob"}, usersGen))

	ok, err = c.Get(ctx, NamespaceFullTree, Key(0, 5), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleTree(), got)

	// Same key in another namespace is a different entry
	ok, err = c.Get(ctx, NamespaceNextLevel, Key(0, 5), &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, NamespaceFullTree))

	ok, err = c.Get(ctx, NamespaceFullTree, Key(0, 5), &got)
	require.NoError(t, err)
	assert.False(t, ok)

	var users []string
	ok, err = c.Get(ctx, NamespaceUsers, Key(1, "LIKE", 0, 10), &users)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"bob"}, users)

	require.NoError(t, c.Invalidate(ctx, Namespaces...))
	ok, err = c.Get(ctx, NamespaceUsers, Key(1, "LIKE", 0, 10), &users)
	require.NoError(t, err)
	assert.False(t, ok)

	exerciseStaleSet(t, c)
}

// exerciseStaleSet stores a value loaded before an invalidation and checks
// that it never becomes readable
func exerciseStaleSet(t *testing.T, c Cache) {
	ctx := context.Background()

	before, err := c.Generation(ctx, NamespaceNextLevel)
	require.NoError(t, err)

	// A write commits and invalidates while the old page is being loaded
	require.NoError(t, c.Invalidate(ctx, Namespaces...))

	after, err := c.Generation(ctx, NamespaceNextLevel)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	require.NoError(t, c.Set(ctx, NamespaceNextLevel, Key(0, 0, 10), "stale", before))

	var got string
	ok, err := c.Get(ctx, NamespaceNextLevel, Key(0, 0, 10), &got)
	require.NoError(t, err)
	assert.False(t, ok, "value loaded before the invalidation must not be served")

	require.NoError(t, c.Set(ctx, NamespaceNextLevel, Key(0, 0, 10), "fresh", after))
	ok, err = c.Get(ctx, NamespaceNextLevel, Key(0, 0, 10), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "5", Key(5))
	assert.Equal(t, "0-3-10", Key(0, 3, 10))
	assert.Equal(t, "7-LIKE-0-10", Key(7, models.ReactionLike, 0, 10))
}

func TestLRU(t *testing.T) {
	c, err := NewLRU(16, time.Minute)
	require.NoError(t, err)
	exerciseBackend(t, c)
}

func TestLRU_Expiry(t *testing.T) {
	c, err := NewLRU(16, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, NamespaceNextLevel, "k", 1, 0))

	var v int
	ok, err := c.Get(ctx, NamespaceNextLevel, "k", &v)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = c.Get(ctx, NamespaceNextLevel, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Eviction(t *testing.T) {
	c, err := NewLRU(2, 0)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, NamespaceFullTree, Key(i), i, 0))
	}
	assert.Equal(t, 2, c.Len())

	var v int
	ok, _ := c.Get(ctx, NamespaceFullTree, Key(0), &v)
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestLRU_InvalidateRepeatedNamespace(t *testing.T) {
	c, err := NewLRU(16, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, NamespaceFullTree, Key(0, 5), sampleTree(), 0))
	require.NoError(t, c.Set(ctx, NamespaceUsers, Key(1, "LIKE", 0, 10), []string{"bob"}, 0))

	// As many arguments as there are namespaces, but only one namespace
	require.NoError(t, c.Invalidate(ctx, NamespaceFullTree, NamespaceFullTree, NamespaceFullTree))

	var tree models.NestedCommentReply
	ok, err := c.Get(ctx, NamespaceFullTree, Key(0, 5), &tree)
	require.NoError(t, err)
	assert.False(t, ok)

	var users []string
	ok, err = c.Get(ctx, NamespaceUsers, Key(1, "LIKE", 0, 10), &users)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, users)

	gen, err := c.Generation(ctx, NamespaceFullTree)
	require.NoError(t, err)
	assert.Equal(t, Generation(1), gen)
}

func TestLRU_ConcurrentSetAndInvalidate(t *testing.T) {
	c, err := NewLRU(64, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gen, err := c.Generation(ctx, NamespaceFullTree)
				assert.NoError(t, err)
				assert.NoError(t, c.Set(ctx, NamespaceFullTree, Key(i, j), j, gen))
				if j%10 == 0 {
					assert.NoError(t, c.Invalidate(ctx, NamespaceFullTree))
				}
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, c.Invalidate(ctx, NamespaceFullTree))
	assert.Equal(t, 0, c.Len())
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, NamespaceFullTree, "k", 1, 0))
	var v int
	ok, err := c.Get(ctx, NamespaceFullTree, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, config.CacheConfig{Backend: config.CacheBackendNone}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	c, err = New(ctx, config.CacheConfig{Backend: config.CacheBackendLRU, Size: 4}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LRU{}, c)

	_, err = New(ctx, config.CacheConfig{Backend: "memcached"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis cache tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())

	c := NewRedis(client, "test-"+uuid.NewString(), time.Minute)
	t.Cleanup(func() { c.Close() })
	exerciseBackend(t, c)
}
