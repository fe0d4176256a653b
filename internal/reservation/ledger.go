package reservation

import (
	"context"
	"log"
	"time"

	"github.com/example/checkout-stock-reservation/internal/availability"
	"github.com/example/checkout-stock-reservation/internal/model"
)

// Store abstracts the persistence the ledger needs.  The MySQL
// implementation lives in the repository package; tests use an
// in-memory fake.
//
// excludeCheckoutID narrows ActiveReservations to holds owned by
// other checkouts, so a checkout's prior holds on the same stock do
// not count against itself; pass 0 to include everything.
type Store interface {
	// StockByID loads a stock row.  Returns ErrStockNotFound when the
	// id is unknown.
	StockByID(ctx context.Context, stockID uint64) (*model.Stock, error)

	// CheckoutIDForLine resolves the checkout owning a line.  Returns
	// ErrLineNotFound when the line is unknown.
	CheckoutIDForLine(ctx context.Context, lineID uint64) (uint64, error)

	// ActiveReservations returns reservations on the stock with
	// reserved_until strictly after asOf, excluding holds whose line
	// belongs to excludeCheckoutID when non-zero.
	ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error)

	// InsertReservation persists a new hold and fills in its ID.
	InsertReservation(ctx context.Context, r *model.Reservation) error

	// DeleteReservationsByLine removes all holds of a line and reports
	// how many rows went away.
	DeleteReservationsByLine(ctx context.Context, lineID uint64) (int64, error)

	// DeleteExpiredReservations removes holds with reserved_until at or
	// before asOf.
	DeleteExpiredReservations(ctx context.Context, asOf time.Time) (int64, error)

	// WithStockLock runs fn while holding an exclusive lock on the
	// stock row.  Reads and writes issued through the Store passed to
	// fn observe and join that lock, so a check-then-insert sequence
	// inside fn is serializable against concurrent calls for the same
	// stock.  The lock is released when fn returns.
	WithStockLock(ctx context.Context, stockID uint64, fn func(ctx context.Context, tx Store) error) error
}

// Ledger creates and releases stock reservations.  All availability
// decisions for writes happen under the stock row lock; unlocked
// reads are only for display estimates.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger returns a Ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock overrides the ledger's time source.  Tests use it to
// pin expiry arithmetic.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Reserve holds quantity units of the stock for the checkout line
// until now+duration.  The availability re-check and the insert run
// under the stock row lock, so two concurrent calls can never both
// pass the check against the same margin.  The line's own checkout
// is excluded from the check: replacing or extending a hold does not
// compete with itself.
//
// Fails with ErrInvalidQuantity, ErrStockNotFound, ErrLineNotFound
// or *InsufficientStockError.  An insufficient stock failure is
// terminal for the request; nothing is retried here.
func (l *Ledger) Reserve(ctx context.Context, lineID, stockID uint64, quantity int, duration time.Duration) (*model.Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	asOf := l.now().UTC()
	var created *model.Reservation
	err := l.store.WithStockLock(ctx, stockID, func(ctx context.Context, tx Store) error {
		stock, err := tx.StockByID(ctx, stockID)
		if err != nil {
			return err
		}
		checkoutID, err := tx.CheckoutIDForLine(ctx, lineID)
		if err != nil {
			return err
		}
		active, err := tx.ActiveReservations(ctx, stockID, asOf, checkoutID)
		if err != nil {
			return err
		}
		avail, availErr := availability.Available(*stock, active, asOf)
		if availErr != nil {
			// Oversold stock is a data integrity problem, not a reason
			// to fail this request beyond the insufficient margin.
			log.Printf("reservation-ledger: %v", availErr)
		}
		if avail < quantity {
			return &InsufficientStockError{StockID: stockID, VariantID: stock.VariantID, Requested: quantity, Available: avail}
		}
		created = &model.Reservation{
			CheckoutLineID:   lineID,
			StockID:          stockID,
			QuantityReserved: quantity,
			ReservedUntil:    asOf.Add(duration),
			CreatedAt:        asOf,
		}
		return tx.InsertReservation(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Release drops every hold the checkout line owns.  Releasing a
// line with no holds is a no-op; the call is idempotent.
func (l *Ledger) Release(ctx context.Context, lineID uint64) error {
	_, err := l.store.DeleteReservationsByLine(ctx, lineID)
	return err
}

// Active returns the reservations still holding units of the stock
// at asOf, optionally excluding those owned by one checkout.  This
// is an unlocked read; use it for estimates, never to gate a write.
func (l *Ledger) Active(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error) {
	return l.store.ActiveReservations(ctx, stockID, asOf, excludeCheckoutID)
}
