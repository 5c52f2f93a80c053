package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a read-through Redis cache in front of a Source. Channel snapshots
// are stored as JSON, rules included.
type Cache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
	prefix string
	logger *zerolog.Logger
}

// NewCache constructs a cache helper. A nil client or non-positive TTL disables caching.
func NewCache(client *redis.Client, source Source, ttl time.Duration, logger *zerolog.Logger) *Cache {
	return &Cache{client: client, source: source, ttl: ttl, prefix: "freight:channel:", logger: logger}
}

// GetByCode returns the channel with the given code, consulting Redis first.
func (c *Cache) GetByCode(ctx context.Context, code string) (Channel, error) {
	return c.get(ctx, c.prefix+"code:"+code, func(ctx context.Context) (Channel, error) {
		return c.source.GetByCode(ctx, code)
	})
}

// GetByID returns the channel with the given identifier, consulting Redis first.
func (c *Cache) GetByID(ctx context.Context, id uuid.UUID) (Channel, error) {
	return c.get(ctx, c.prefix+"id:"+id.String(), func(ctx context.Context) (Channel, error) {
		return c.source.GetByID(ctx, id)
	})
}

// Invalidate drops both cache entries of a channel after its configuration changed.
func (c *Cache) Invalidate(ctx context.Context, ch Channel) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, c.prefix+"code:"+ch.Code, c.prefix+"id:"+ch.ID.String()).Err()
}

func (c *Cache) get(ctx context.Context, key string, load func(context.Context) (Channel, error)) (Channel, error) {
	if c.source == nil {
		return Channel{}, ErrStoreUnavailable
	}
	if !c.enabled() {
		return load(ctx)
	}
	var cached Channel
	found, err := c.getJSON(ctx, key, &cached)
	if err != nil {
		c.log().Warn().Err(err).Str("key", key).Msg("channel cache read failed")
	} else if found {
		return cached, nil
	}
	ch, err := load(ctx)
	if err != nil {
		return Channel{}, err
	}
	if err := c.setJSON(ctx, key, ch); err != nil {
		c.log().Warn().Err(err).Str("key", key).Msg("channel cache write failed")
	}
	return ch, nil
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) log() *zerolog.Logger {
	if c.logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return c.logger
}
