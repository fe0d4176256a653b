// Package availability computes how many units of a stock are open
// for new reservations at a point in time.  The arithmetic is pure:
// callers load the stock row and its reservations, pass an explicit
// asOf instant, and receive the effective quantity.  Keeping time a
// parameter instead of calling time.Now here makes expiry behaviour
// deterministic in tests.
package availability

import (
	"fmt"
	"time"

	"github.com/example/checkout-stock-reservation/internal/model"
)

// IntegrityError reports that active reservations against a stock
// exceed its physical quantity.  That state cannot be produced
// through the ledger (reservations are checked under a row lock at
// creation) so it signals outside interference or a bug: callers
// should log it and continue with the clamped value rather than
// surface it to customers.
type IntegrityError struct {
	StockID uint64 // stock whose accounting is off
	Deficit int    // units reserved beyond the physical quantity
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("stock %d oversold by %d units", e.StockID, e.Deficit)
}

// Reserved sums the units held by reservations that are still
// active at asOf.  Expired reservations contribute nothing, no
// matter whether the sweeper has removed their rows yet.
func Reserved(reservations []model.Reservation, asOf time.Time) int {
	total := 0
	for _, r := range reservations {
		if r.ActiveAt(asOf) {
			total += r.QuantityReserved
		}
	}
	return total
}

// Available returns the units of the stock open for new
// reservations at asOf: the physical quantity minus all active
// reservations in the given slice.  The caller decides which
// reservations to pass; excluding a checkout's own holds happens
// at query time.
//
// The result is never negative.  When the subtraction goes below
// zero the value is clamped to 0 and a non-nil *IntegrityError is
// returned alongside it so the condition is visible to logs; the
// clamped value remains usable for display.
func Available(stock model.Stock, reservations []model.Reservation, asOf time.Time) (int, error) {
	avail := stock.Quantity - Reserved(reservations, asOf)
	if avail < 0 {
		return 0, &IntegrityError{StockID: stock.ID, Deficit: -avail}
	}
	return avail, nil
}
