package reservation

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically deletes reservations whose reserved_until
// has passed.  Correctness never depends on it: every availability
// read filters on reserved_until itself.  The sweeper only keeps
// the stock_reservations table from accumulating dead rows.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// NewSweeper returns a Sweeper that runs every interval.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// WithClock overrides the sweeper's time source for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run blocks, sweeping once per interval until the context is
// cancelled.  Sweep failures are logged and the loop keeps going;
// a missed sweep only delays cleanup.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("reservation-sweeper: sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("reservation-sweeper: removed %d expired holds", removed)
			}
		}
	}
}

// Sweep deletes all currently expired reservations and reports how
// many rows were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredReservations(ctx, s.now().UTC())
}
