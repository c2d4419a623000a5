// Package histogram implements persistent per-channel and per-user language
// histograms, backed by Redis hashes, consumed by internal/langresolver.
package histogram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// histogramTTL bounds how long a channel/user's language history is
// retained without fresh activity.
const histogramTTL = 90 * 24 * time.Hour

// Store is a Redis-backed language histogram keyed by scope kind ("channel"
// or "user") and id.
type Store struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func keyFor(scopeKind, id string) string {
	return fmt.Sprintf("stt:langhist:%s:%s", scopeKind, id)
}

// Increment increments lang's count for (scopeKind, id) by one. Errors are
// logged and swallowed: histogram persistence is best-effort and never
// blocks recognition.
func (s *Store) Increment(ctx context.Context, scopeKind, id, lang string) {
	if id == "" || lang == "" {
		return
	}
	key := keyFor(scopeKind, id)
	pipe := s.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, lang, 1)
	pipe.Expire(ctx, key, histogramTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("histogram: increment failed", "scope", scopeKind, "id", id, "lang", lang, "error", err)
	}
}

// Get returns the full language→count histogram for (scopeKind, id), or an
// empty map on any Redis error.
func (s *Store) Get(ctx context.Context, scopeKind, id string) map[string]int {
	if id == "" {
		return nil
	}
	raw, err := s.rdb.HGetAll(ctx, keyFor(scopeKind, id)).Result()
	if err != nil {
		slog.Warn("histogram: read failed", "scope", scopeKind, "id", id, "error", err)
		return nil
	}
	out := make(map[string]int, len(raw))
	for lang, v := range raw {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			out[lang] = n
		}
	}
	return out
}
