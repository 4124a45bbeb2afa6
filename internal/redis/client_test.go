package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"microblog/internal/redis"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redis.Connect(context.Background(), "redis://"+mr.Addr(), time.Second)
	require.NoError(t, err)
	defer func() { require.NoError(t, client.Close()) }()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := redis.NewClient("http://not-redis")
	require.Error(t, err)
}

func TestConnectUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redis.Connect(context.Background(), "redis://"+addr, 200*time.Millisecond)
	require.Error(t, err)
}
