// Package cache stores lookup option lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
)

const (
	keyPrefix = "qctrack:lookup:"    // qctrack:lookup:{kind}:{parent|all}
	genPrefix = "qctrack:lookupgen:" // qctrack:lookupgen:{kind}, outside the kind's key pattern
	scanBatch = 100

	// InvalidationChannel receives the kind name every time a kind is invalidated.
	InvalidationChannel = "qctrack:lookup:invalidated"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key builds the cache key for one kind/parent pair.
func Key(kind domain.Kind, parentID *int64) string {
	parent := "all"
	if parentID != nil {
		parent = strconv.FormatInt(*parentID, 10)
	}
	return keyPrefix + string(kind) + ":" + parent
}

func genKey(kind domain.Kind) string {
	return genPrefix + string(kind)
}

// Generation returns the invalidation counter of kind. Read it before loading
// from the database and hand it to Set.
func (c *Cache) Generation(ctx context.Context, kind domain.Kind) (int64, error) {
	n, err := c.client.Get(ctx, genKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get lookup generation: %w", err)
	}
	return n, nil
}

// Get returns the cached list. The bool is false on a miss.
func (c *Cache) Get(ctx context.Context, kind domain.Kind, parentID *int64) ([]domain.Option, bool, error) {
	data, err := c.client.Get(ctx, Key(kind, parentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get lookup cache: %w", err)
	}

	var opts []domain.Option
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, false, fmt.Errorf("unmarshal lookup cache: %w", err)
	}
	return opts, true, nil
}

// Set stores opts only while kind is still at generation gen, so a list loaded
// before an invalidation is never written back after it. The bool reports
// whether the list was stored.
func (c *Cache) Set(ctx context.Context, kind domain.Kind, parentID *int64, gen int64, opts []domain.Option) (bool, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return false, fmt.Errorf("marshal lookup options: %w", err)
	}

	gk := genKey(kind)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(kind, parentID), data, c.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set lookup cache: %w", err)
	}
	return stored, nil
}

// Invalidate bumps the generation of kind, deletes every cached list of kind
// and announces the kind on InvalidationChannel. It returns the number of keys
// removed.
func (c *Cache) Invalidate(ctx context.Context, kind domain.Kind) (int, error) {
	if err := c.client.Incr(ctx, genKey(kind)).Err(); err != nil {
		return 0, fmt.Errorf("bump lookup generation: %w", err)
	}

	pattern := keyPrefix + string(kind) + ":*"

	removed := 0
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan lookup keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete lookup keys: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := c.client.Publish(ctx, InvalidationChannel, string(kind)).Err(); err != nil {
		return removed, fmt.Errorf("publish lookup invalidation: %w", err)
	}
	return removed, nil
}

// Subscribe listens on InvalidationChannel until ctx is done, calling fn with
// each invalidated kind.
func (c *Cache) Subscribe(ctx context.Context, fn func(domain.Kind)) error {
	sub := c.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe lookup invalidations: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if kind, ok := domain.ParseKind(msg.Payload); ok {
				fn(kind)
			}
		}
	}
}
