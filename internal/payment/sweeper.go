package payment

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sweeper deletes failed orders whose expiry deadline has passed. The
// periodic sweep is the durable mechanism; the one-shot timers scheduled at
// the failed transition do not survive a restart.
type Sweeper struct {
	store    OrderStore
	interval time.Duration
}

func NewSweeper(store OrderStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, interval: interval}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[SWEEPER] [INFO] running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[SWEEPER] [INFO] stopped")
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Println("[SWEEPER] [ERROR] sweep failed:", err)
				continue
			}
			if n > 0 {
				log.Printf("[SWEEPER] [INFO] deleted %d expired orders", n)
			}
		}
	}
}

// SweepOnce deletes every failed order whose expiry date is in the past and
// reports how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, time.Now())
}

// ScheduleDeletion arms a one-shot timer that deletes the order once its
// expiry passes. The delete is conditional on the order still being failed
// and expired, so a timer armed before a concurrent transition does no harm.
func (s *Sweeper) ScheduleDeletion(id primitive.ObjectID, expiry time.Time) *time.Timer {
	delay := time.Until(expiry)
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, err := s.store.DeleteExpiredByID(ctx, id, time.Now())
		if err != nil {
			log.Printf("[SWEEPER] [ERROR] scheduled delete of order %s failed: %v", id.Hex(), err)
			return
		}
		if deleted {
			log.Printf("[SWEEPER] [INFO] deleted expired order %s", id.Hex())
		}
	})
}
