// Package quota implements the Quota Store component: atomic daily-seconds
// reservation and refund against a Redis-backed counter, keyed per
// [sro.QuotaKey].
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nopparoot15/saltybot/pkg/sro"
	"github.com/redis/go-redis/v9"
)

// reserveScript implements try_reserve's read-compare-increment-expire
// sequence as a single atomic round trip: GET, compare, INCRBY, EXPIRE.
// Returns the counter value after reservation, or -1 if it would exceed the
// limit.
var reserveScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]))
if cur == nil then cur = 0 end
local delta = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if cur + delta > limit then
	return -1
end
local newv = redis.call("INCRBY", KEYS[1], delta)
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("EXPIRE", KEYS[1], ttl)
end
return newv
`)

// refundScript decrements the counter, clamping at zero, and re-asserts the
// TTL if it is missing (key has no expiry set, e.g. after a restore).
var refundScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]))
if cur == nil then cur = 0 end
local delta = tonumber(ARGV[1])
local newv = cur - delta
if newv < 0 then newv = 0 end
local ttl = redis.call("TTL", KEYS[1])
redis.call("SET", KEYS[1], newv)
if ttl > 0 then
	redis.call("EXPIRE", KEYS[1], ttl)
else
	redis.call("EXPIRE", KEYS[1], tonumber(ARGV[2]))
end
return newv
`)

// Store is a Redis-backed [sro.QuotaStore]. It fails open on any Redis
// error: TryReserve returns (true, 0, wrapped-err) and logs a warning, per
// the fixed fail-open policy — denying service on an infrastructure outage
// is worse than over-serving briefly.
type Store struct {
	rdb *redis.Client
}

var _ sro.QuotaStore = (*Store)(nil)

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func keyFor(k sro.QuotaKey) string {
	if k.Scope == sro.ScopeGuildUser {
		return fmt.Sprintf("stt:sec:%s:%s:%s", k.Date, k.GuildID, k.UserID)
	}
	return fmt.Sprintf("stt:sec:%s:%s", k.Date, k.UserID)
}

func (s *Store) TryReserve(ctx context.Context, key sro.QuotaKey, seconds, limit, ttlSeconds int) (bool, int, error) {
	res, err := reserveScript.Run(ctx, s.rdb, []string{keyFor(key)}, seconds, limit, ttlSeconds).Int()
	if err != nil {
		slog.Warn("quota: store unavailable, failing open", "error", err, "key", keyFor(key))
		return true, 0, fmt.Errorf("%w: %v", sro.ErrQuotaStoreUnavailable, err)
	}
	if res < 0 {
		current, _ := s.rdb.Get(ctx, keyFor(key)).Int()
		return false, current, nil
	}
	return true, res, nil
}

func (s *Store) Refund(ctx context.Context, key sro.QuotaKey, seconds, ttlSeconds int) error {
	if err := refundScript.Run(ctx, s.rdb, []string{keyFor(key)}, seconds, ttlSeconds).Err(); err != nil {
		slog.Warn("quota: refund failed", "error", err, "key", keyFor(key))
		return fmt.Errorf("%w: %v", sro.ErrQuotaStoreUnavailable, err)
	}
	return nil
}

func (s *Store) GetUsed(ctx context.Context, key sro.QuotaKey) int {
	v, err := s.rdb.Get(ctx, keyFor(key)).Int()
	if err != nil {
		return 0
	}
	return v
}
