package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixbridge/internal/domain/payment"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "pixbridge:status:"

// consumeScript returns the stored status and deletes it when it is PAID, in
// one round trip so two pollers cannot both observe the same payment.
var consumeScript = goredis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v == 'PAID' then
  redis.call('DEL', KEYS[1])
end
return v
`)

// StatusStore keeps charge status in Redis, shared by every instance that
// points at the same server. Entries expire after ttl (0 disables expiry).
type StatusStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewStatusStore(rdb goredis.UniversalClient, ttl time.Duration) *StatusStore {
	return &StatusStore{rdb: rdb, ttl: ttl}
}

func (s *StatusStore) MarkPending(ctx context.Context, txid string) error {
	return s.set(ctx, txid, payment.StatusPending)
}

func (s *StatusStore) MarkPaid(ctx context.Context, txid string) error {
	return s.set(ctx, txid, payment.StatusPaid)
}

func (s *StatusStore) Consume(ctx context.Context, txid string) (payment.Status, error) {
	v, err := consumeScript.Run(ctx, s.rdb, []string{key(txid)}).Text()
	if errors.Is(err, goredis.Nil) {
		return payment.StatusNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis consume %s: %w", txid, err)
	}
	return payment.Status(v), nil
}

func (s *StatusStore) set(ctx context.Context, txid string, st payment.Status) error {
	if err := s.rdb.Set(ctx, key(txid), string(st), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s=%s: %w", txid, st, err)
	}
	return nil
}

func key(txid string) string { return keyPrefix + txid }
