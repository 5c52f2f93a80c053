package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/app"
)

func TestOpenRedis(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client, err := app.OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	t.Parallel()
	_, err := app.OpenRedis(context.Background(), "::not a url", false, nil)
	require.Error(t, err)
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	t.Parallel()
	_, err := app.OpenPostgres(context.Background(), "", "freight-test")
	require.Error(t, err)
}
