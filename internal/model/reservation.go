package model

import "time"

// Reservation is a temporary hold of stock units for a checkout
// line.  Holds keep concurrent checkouts from selling the same
// units while a customer completes payment.  A reservation
// expires automatically once ReservedUntil has passed; expiry is
// evaluated lazily on read, so expired rows may linger until the
// sweeper removes them, but they never count toward availability.
//
// Fields:
//
//	ID               – primary key identifier.
//	CheckoutLineID   – checkout line the hold belongs to.
//	StockID          – stock the units are held against.
//	QuantityReserved – units held (> 0).
//	ReservedUntil    – when the hold lapses.
//	CreatedAt        – when the hold was created.
type Reservation struct {
	ID               uint64    // stock_reservations.id
	CheckoutLineID   uint64    // stock_reservations.checkout_line_id
	StockID          uint64    // stock_reservations.stock_id
	QuantityReserved int       // stock_reservations.quantity_reserved
	ReservedUntil    time.Time // stock_reservations.reserved_until
	CreatedAt        time.Time // stock_reservations.created_at
}

// ActiveAt reports whether the reservation still holds units at
// the given instant.  Comparisons are strict: a reservation whose
// ReservedUntil equals asOf has already lapsed.
func (r Reservation) ActiveAt(asOf time.Time) bool {
	return r.ReservedUntil.After(asOf)
}
