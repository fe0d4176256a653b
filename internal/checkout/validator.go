// Package checkout holds the services acting on checkouts: line
// validation against stock, shipping-address updates and line
// management.  Persistence and directories are consumed through
// narrow interfaces implemented by the repository package.
package checkout

import (
	"context"
	"log"
	"time"

	"github.com/example/checkout-stock-reservation/internal/availability"
	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

// StockDirectory resolves which stocks may serve a variant for a
// destination.  A stock is eligible when its warehouse belongs to a
// shipping zone that is linked to the checkout's channel and covers
// the destination country.  A channel without zones yields no
// stocks for any country.
type StockDirectory interface {
	EligibleStocks(ctx context.Context, variantID, channelID uint64, country string) ([]model.Stock, error)
}

// ReservationSource supplies active reservations per stock.  The
// ledger's store satisfies it.
type ReservationSource interface {
	ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error)
}

// Validator answers whether a requested quantity of a variant can
// be fulfilled toward a destination country.  Availability
// aggregates as a sum across all eligible stocks: the order service
// may split fulfilment over warehouses, so a request no single
// warehouse can satisfy alone is still fine when warehouses
// together can.
type Validator struct {
	stocks       StockDirectory
	reservations ReservationSource
	now          func() time.Time
}

// NewValidator returns a Validator over the given directories.
func NewValidator(stocks StockDirectory, reservations ReservationSource) *Validator {
	return &Validator{stocks: stocks, reservations: reservations, now: time.Now}
}

// WithClock overrides the validator's time source for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// AvailableQuantity sums availability of the variant across every
// eligible stock at asOf, skipping reservations owned by
// excludeCheckoutID.  Oversold stocks are logged and counted as
// zero.  This is an unlocked read: use it for validation and
// display, not to gate reservation writes.
func (v *Validator) AvailableQuantity(ctx context.Context, variantID, channelID uint64, country string, asOf time.Time, excludeCheckoutID uint64) (int, error) {
	stocks, err := v.stocks.EligibleStocks(ctx, variantID, channelID, country)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range stocks {
		active, err := v.reservations.ActiveReservations(ctx, s.ID, asOf, excludeCheckoutID)
		if err != nil {
			return 0, err
		}
		avail, availErr := availability.Available(s, active, asOf)
		if availErr != nil {
			log.Printf("checkout-validator: %v", availErr)
		}
		total += avail
	}
	return total, nil
}

// ValidateLine checks that the line's quantity can be shipped to
// the destination country within the checkout's channel.  The
// line's own checkout is excluded from reservation accounting so a
// checkout never competes with its own holds.  Fails with
// *reservation.InsufficientStockError on shortfall; a channel with
// no shipping zones covering the country fails the same way, since
// eligibility is empty by definition.
func (v *Validator) ValidateLine(ctx context.Context, line model.CheckoutLine, channelID uint64, country string) error {
	asOf := v.now().UTC()
	total, err := v.AvailableQuantity(ctx, line.VariantID, channelID, country, asOf, line.CheckoutID)
	if err != nil {
		return err
	}
	if total < line.Quantity {
		return &reservation.InsufficientStockError{
			VariantID: line.VariantID,
			Requested: line.Quantity,
			Available: total,
		}
	}
	return nil
}

// ValidateLines runs ValidateLine for every line and returns the
// first failure.  All lines must pass before an address update may
// persist anything.
func (v *Validator) ValidateLines(ctx context.Context, chk *model.Checkout, lines []model.CheckoutLine, country string) error {
	for _, line := range lines {
		if err := v.ValidateLine(ctx, line, chk.ChannelID, country); err != nil {
			return err
		}
	}
	return nil
}
