// Package reservation implements the stock reservation ledger:
// time-bounded holds of stock units tied to checkout lines.  The
// ledger talks to persistence through the Store interface so the
// business rules stay independent of MySQL; the SQL implementation
// lives in the repository package.
package reservation

import (
	"errors"
	"fmt"
)

// Error codes surfaced to API boundaries.  Callers translating
// ledger failures into user-facing responses attach these verbatim.
const (
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// FieldQuantity names the input field an insufficient stock
	// failure is attributed to.
	FieldQuantity = "quantity"
)

// ErrStockNotFound is returned by Store implementations when the
// referenced stock row does not exist.
var ErrStockNotFound = errors.New("stock not found")

// ErrLineNotFound is returned by Store implementations when the
// referenced checkout line does not exist.
var ErrLineNotFound = errors.New("checkout line not found")

// ErrInvalidQuantity is returned when a caller asks to reserve a
// non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// InsufficientStockError is the terminal failure of an availability
// check: the requested quantity exceeds what eligible stock can
// provide.  There is no retry; the customer corrects the quantity
// or the destination.  Field and Code carry the structured error
// the API boundary exposes.
type InsufficientStockError struct {
	VariantID uint64 // variant that could not be satisfied (0 when unknown)
	StockID   uint64 // stock checked, 0 when the failure spans all eligible stocks
	Requested int    // units asked for
	Available int    // units actually open
}

func (e *InsufficientStockError) Error() string {
	if e.StockID != 0 {
		return fmt.Sprintf("insufficient stock %d: requested %d, available %d", e.StockID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for variant %d: requested %d, available %d", e.VariantID, e.Requested, e.Available)
}

// Field names the input field the failure belongs to, always "quantity".
func (e *InsufficientStockError) Field() string { return FieldQuantity }

// Code returns the machine-readable error code.
func (e *InsufficientStockError) Code() string { return CodeInsufficientStock }
