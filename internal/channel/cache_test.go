package channel

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/surcharge"
)

type fakeSource struct {
	channels map[string]Channel
	calls    int
}

func (f *fakeSource) GetByCode(_ context.Context, code string) (Channel, error) {
	f.calls++
	ch, ok := f.channels[code]
	if !ok {
		return Channel{}, ErrNotFound
	}
	return ch, nil
}

func (f *fakeSource) GetByID(_ context.Context, id uuid.UUID) (Channel, error) {
	f.calls++
	for _, ch := range f.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Channel{}, ErrNotFound
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *fakeSource, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ch := validChannel()
	ch.ID = uuid.New()
	ch.Rules = []surcharge.Rule{
		{ID: "fuel", Name: "Fuel", Params: surcharge.Percentage{Rate: surcharge.Float(0.12)}},
	}
	src := &fakeSource{channels: map[string]Channel{ch.Code: ch}}
	return NewCache(client, src, ttl, nil), src, mr
}

func TestCacheReadsThrough(t *testing.T) {
	t.Parallel()

	cache, src, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	first, err := cache.GetByCode(ctx, "EXP-DE")
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.True(t, mr.Exists("freight:channel:code:EXP-DE"))

	second, err := cache.GetByCode(ctx, "EXP-DE")
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.Equal(t, first, second)
	require.Len(t, second.Rules, 1)
	require.Equal(t, surcharge.KindPercentage, second.Rules[0].Kind())

	byID, err := cache.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.Code, byID.Code)
	require.Equal(t, 2, src.calls)
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	cache, src, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	ch, err := cache.GetByCode(ctx, "EXP-DE")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, ch))
	require.False(t, mr.Exists("freight:channel:code:EXP-DE"))

	_, err = cache.GetByCode(ctx, "EXP-DE")
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestCacheDoesNotStoreMisses(t *testing.T) {
	t.Parallel()

	cache, src, mr := newTestCache(t, time.Minute)

	_, err := cache.GetByCode(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, mr.Exists("freight:channel:code:NOPE"))
	require.Equal(t, 1, src.calls)
}

func TestCacheFallsBackWhenRedisIsDown(t *testing.T) {
	t.Parallel()

	cache, src, mr := newTestCache(t, time.Minute)
	mr.Close()

	ch, err := cache.GetByCode(context.Background(), "EXP-DE")
	require.NoError(t, err)
	require.Equal(t, "EXP-DE", ch.Code)
	require.Equal(t, 1, src.calls)
}

func TestCacheDisabledWithoutTTL(t *testing.T) {
	t.Parallel()

	cache, src, _ := newTestCache(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := cache.GetByCode(ctx, "EXP-DE")
		require.NoError(t, err)
	}
	require.Equal(t, 3, src.calls)
}
