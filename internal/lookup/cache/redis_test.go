package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Hour), mr, client
}

func mustSet(t *testing.T, c *Cache, kind domain.Kind, parentID *int64, opts []domain.Option) {
	t.Helper()
	ctx := context.Background()
	gen, err := c.Generation(ctx, kind)
	require.NoError(t, err)
	stored, err := c.Set(ctx, kind, parentID, gen, opts)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestKey(t *testing.T) {
	parent := int64(7)
	assert.Equal(t, "qctrack:lookup:products:all", Key(domain.KindProducts, nil))
	assert.Equal(t, "qctrack:lookup:products:7", Key(domain.KindProducts, &parent))
}

func TestGetSet(t *testing.T) {
	c, mr, _ := setupCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, domain.KindDivisions, nil)
	require.NoError(t, err)
	assert.False(t, hit)

	opts := []domain.Option{{Value: 1, Label: "Civil"}, {Value: 2, Label: "Structural"}}
	mustSet(t, c, domain.KindDivisions, nil, opts)

	got, hit, err := c.Get(ctx, domain.KindDivisions, nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, opts, got)

	assert.Equal(t, time.Hour, mr.TTL("qctrack:lookup:divisions:all"))

	mr.FastForward(2 * time.Hour)
	_, hit, err = c.Get(ctx, domain.KindDivisions, nil)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGet_CorruptEntry(t *testing.T) {
	c, mr, _ := setupCache(t)
	require.NoError(t, mr.Set("qctrack:lookup:divisions:all", "{not json"))

	_, hit, err := c.Get(context.Background(), domain.KindDivisions, nil)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestInvalidate_OnlyThatKind(t *testing.T) {
	c, mr, client := setupCache(t)
	ctx := context.Background()

	one, two := int64(1), int64(2)
	opts := []domain.Option{{Value: 1, Label: "x"}}
	mustSet(t, c, domain.KindErrorCategories, nil, opts)
	mustSet(t, c, domain.KindErrorSubCategories, nil, opts)
	mustSet(t, c, domain.KindErrorSubCategories, &one, opts)
	mustSet(t, c, domain.KindErrorSubCategories, &two, opts)

	sub := client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	removed, err := c.Invalidate(ctx, domain.KindErrorSubCategories)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	assert.True(t, mr.Exists("qctrack:lookup:errorCategories:all"))
	assert.False(t, mr.Exists("qctrack:lookup:errorSubCategories:all"))
	assert.False(t, mr.Exists("qctrack:lookup:errorSubCategories:1"))

	msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	assert.Equal(t, "errorSubCategories", msg.Payload)
}

func TestSet_SkipsListLoadedBeforeInvalidate(t *testing.T) {
	c, mr, _ := setupCache(t)
	ctx := context.Background()
	parent := int64(3)

	gen, err := c.Generation(ctx, domain.KindProducts)
	require.NoError(t, err)
	assert.Zero(t, gen)

	// a write commits and invalidates while the reader is still loading
	_, err = c.Invalidate(ctx, domain.KindProducts)
	require.NoError(t, err)

	stale := []domain.Option{{Value: 1, Label: "old name"}}
	stored, err := c.Set(ctx, domain.KindProducts, &parent, gen, stale)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("qctrack:lookup:products:3"))

	gen, err = c.Generation(ctx, domain.KindProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	stored, err = c.Set(ctx, domain.KindProducts, &parent, gen, stale)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestSubscribe(t *testing.T) {
	c, _, client := setupCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Kind, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Subscribe(ctx, func(k domain.Kind) { got <- k })
	}()

	// publish until the subscriber is attached
	require.Eventually(t, func() bool {
		client.Publish(ctx, InvalidationChannel, "resources")
		select {
		case k := <-got:
			return k == domain.KindResources
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
