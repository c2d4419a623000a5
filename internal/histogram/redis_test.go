package histogram

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb)
}

func TestIncrementThenGetReflectsCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Increment(ctx, "channel", "c1", "th-TH")
	s.Increment(ctx, "channel", "c1", "th-TH")
	s.Increment(ctx, "channel", "c1", "en-US")

	got := s.Get(ctx, "channel", "c1")
	if got["th-TH"] != 2 {
		t.Fatalf("th-TH = %d, want 2", got["th-TH"])
	}
	if got["en-US"] != 1 {
		t.Fatalf("en-US = %d, want 1", got["en-US"])
	}
}

func TestGetReturnsNilForUnknownID(t *testing.T) {
	s := newTestStore(t)
	if got := s.Get(context.Background(), "user", ""); got != nil {
		t.Fatalf("expected nil for empty id, got %v", got)
	}
}

func TestScopingDistinguishesChannelAndUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Increment(ctx, "channel", "shared-id", "ja-JP")
	s.Increment(ctx, "user", "shared-id", "ko-KR")

	channelHist := s.Get(ctx, "channel", "shared-id")
	userHist := s.Get(ctx, "user", "shared-id")

	if channelHist["ja-JP"] != 1 || channelHist["ko-KR"] != 0 {
		t.Fatalf("channel histogram mixed scopes: %v", channelHist)
	}
	if userHist["ko-KR"] != 1 || userHist["ja-JP"] != 0 {
		t.Fatalf("user histogram mixed scopes: %v", userHist)
	}
}
