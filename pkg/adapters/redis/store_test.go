package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/redis"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		_, client := newClient(t)
		ports.RunFlowStoreContract(t, redis.NewFromClient(client))
	})
	t.Run("compressed", func(t *testing.T) {
		_, client := newClient(t)
		ports.RunFlowStoreContract(t, redis.NewFromClient(client, redis.WithCompression(true)))
	})
}

func TestRedisStore_CompressionIsTransparent(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	plain := redis.NewFromClient(client)
	require.NoError(t, plain.Save(ctx, domain.NewFlow("old", "written plain")))

	compressed := redis.NewFromClient(client, redis.WithCompression(true))
	require.NoError(t, compressed.Save(ctx, domain.NewFlow("new", "written compressed")))

	raw, err := mr.Get("flowdesk:flow:new")
	require.NoError(t, err)
	assert.NotEqual(t, byte('{'), raw[0], "compressed value should not be JSON")

	for id, name := range map[string]string{"old": "written plain", "new": "written compressed"} {
		f, err := compressed.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name)
	}
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewFlow("flow-ttl", "x")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "flow-ttl")

	// Key expiration happens in miniredis time.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "flow-ttl")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	// Index pruning compares against wall-clock time.
	time.Sleep(2100 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewFlow("my-flow", "x")))

	assert.True(t, mr.Exists("custom:app:flow:my-flow"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-flow"}, ids)
}
