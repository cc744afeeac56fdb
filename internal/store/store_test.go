package store

import (
	"context"
	"testing"

	"pixbridge/internal/config"
	"pixbridge/internal/domain/payment"
	"pixbridge/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), config.Cfg{Store: config.StoreCfg{Backend: "memory"}})
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &memory.StatusStore{}, s)

	require.NoError(t, s.MarkPending(context.Background(), "tx"))
	st, err := s.Consume(context.Background(), "tx")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, st)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), config.Cfg{Store: config.StoreCfg{Backend: "etcd"}})
	assert.ErrorContains(t, err, "etcd")
}

func TestOpen_RedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Open(ctx, config.Cfg{
		Store: config.StoreCfg{Backend: "redis"},
		Redis: config.RedisCfg{Addr: "127.0.0.1:1"},
	})
	assert.Error(t, err)
}
