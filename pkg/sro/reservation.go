package sro

import (
	"context"
	"log/slog"

	"github.com/nopparoot15/saltybot/internal/observe"
)

// reservation is the scoped resource that owns a quota reservation: it is
// refunded automatically unless commit is called, replacing the ad-hoc
// try/finally pattern the refund rule would otherwise require at every
// terminal branch of the orchestrator's state machine.
type reservation struct {
	store      QuotaStore
	key        QuotaKey
	seconds    int
	ttlSeconds int
	committed  bool
	refunded   bool
}

func newReservation(store QuotaStore, key QuotaKey, seconds, ttlSeconds int) *reservation {
	return &reservation{store: store, key: key, seconds: seconds, ttlSeconds: ttlSeconds}
}

// commit marks the reservation as kept; release becomes a no-op afterward.
func (r *reservation) commit() {
	r.committed = true
}

// release refunds the reservation unless it was committed. Safe to call more
// than once.
func (r *reservation) release(ctx context.Context) {
	if r.committed || r.refunded {
		return
	}
	r.refunded = true
	observe.DefaultMetrics().RecordQuotaRefund(ctx)
	if err := r.store.Refund(ctx, r.key, r.seconds, r.ttlSeconds); err != nil {
		slog.Warn("sro: refund failed", "error", err, "user", r.key.UserID, "seconds", r.seconds)
	}
}
