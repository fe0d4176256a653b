package checkout

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/queue"
)

// ErrCheckoutNotFound is returned by Store implementations when the
// referenced checkout does not exist.
var ErrCheckoutNotFound = errors.New("checkout not found")

// ErrShippingMethodNotFound is returned by ShippingDirectory
// implementations when a method id is unknown.
var ErrShippingMethodNotFound = errors.New("shipping method not found")

// ErrShippingZoneNotFound is returned by ShippingDirectory
// implementations when a zone id is unknown.
var ErrShippingZoneNotFound = errors.New("shipping zone not found")

// Store is the checkout persistence consumed by the services in
// this package.  The MySQL implementation lives in the repository
// package.
type Store interface {
	// CheckoutByID loads a checkout.  Returns ErrCheckoutNotFound when
	// the id is unknown.
	CheckoutByID(ctx context.Context, id uint64) (*model.Checkout, error)

	// LinesByCheckout returns all lines of a checkout.
	LinesByCheckout(ctx context.Context, checkoutID uint64) ([]model.CheckoutLine, error)

	// LineByID loads one line.  Returns reservation.ErrLineNotFound
	// when the id is unknown.
	LineByID(ctx context.Context, lineID uint64) (*model.CheckoutLine, error)

	// InsertLine persists a new line and fills in its ID.
	InsertLine(ctx context.Context, line *model.CheckoutLine) error

	// DeleteLine removes a line.  Deleting an unknown line is a no-op.
	DeleteLine(ctx context.Context, lineID uint64) error

	// UpdateShippingAddress stores the address columns, sets the
	// checkout country from the address and bumps last_change to at.
	UpdateShippingAddress(ctx context.Context, checkoutID uint64, addr model.Address, at time.Time) error

	// ClearShippingMethod sets the checkout's shipping method to NULL.
	ClearShippingMethod(ctx context.Context, checkoutID uint64) error
}

// ShippingDirectory resolves shipping methods and their zones for
// re-validation after a destination change.
type ShippingDirectory interface {
	MethodByID(ctx context.Context, id uint64) (*model.ShippingMethod, error)
	ZoneByID(ctx context.Context, id uint64) (*model.ShippingZone, error)
}

// AddressService applies shipping-address updates to checkouts.
// The update is rejected up front when any line cannot be fulfilled
// toward the new destination; in that case nothing persists and the
// checkout's last_change stays untouched.  On success the address
// is stored and the previously selected shipping method is
// re-validated: a method whose zone no longer covers the country is
// cleared while the address fields stay persisted.
type AddressService struct {
	store     Store
	shipping  ShippingDirectory
	validator *Validator
	publish   func(ctx context.Context, ev queue.CheckoutAddressUpdatedEvent) error
	now       func() time.Time
}

// NewAddressService wires an AddressService.  publish may be nil
// when no broker is configured; events are then skipped.
func NewAddressService(store Store, shipping ShippingDirectory, validator *Validator, publish func(ctx context.Context, ev queue.CheckoutAddressUpdatedEvent) error) *AddressService {
	return &AddressService{store: store, shipping: shipping, validator: validator, publish: publish, now: time.Now}
}

// WithClock overrides the service's time source for tests.
func (s *AddressService) WithClock(now func() time.Time) *AddressService {
	s.now = now
	return s
}

// UpdateShippingAddress sets the checkout's shipping address and
// returns the checkout as persisted.  Country codes are normalized
// to upper case before any lookups.
//
// Fails with ErrCheckoutNotFound or, when stock cannot cover a line
// toward the new destination, *reservation.InsufficientStockError;
// validation failures leave the checkout completely unchanged.
func (s *AddressService) UpdateShippingAddress(ctx context.Context, checkoutID uint64, addr model.Address) (*model.Checkout, error) {
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))

	chk, err := s.store.CheckoutByID(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.LinesByCheckout(ctx, chk.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateLines(ctx, chk, lines, addr.Country); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.store.UpdateShippingAddress(ctx, chk.ID, addr, at); err != nil {
		return nil, err
	}
	chk.ShippingAddress = &addr
	chk.Country = addr.Country
	chk.LastChange = at

	cleared, err := s.revalidateShippingMethod(ctx, chk)
	if err != nil {
		return nil, err
	}

	if s.publish != nil {
		ev := queue.CheckoutAddressUpdatedEvent{
			EventID:               uuid.NewString(),
			CheckoutID:            chk.ID,
			Country:               chk.Country,
			ShippingMethodCleared: cleared,
			UpdatedAt:             at.Format(time.RFC3339),
		}
		if err := s.publish(ctx, ev); err != nil {
			// The update already persisted; a lost event must not fail it.
			log.Printf("checkout-address: publish address updated failed: %v", err)
		}
	}
	return chk, nil
}

// revalidateShippingMethod clears the checkout's shipping method
// when its zone does not cover the checkout's current country.  It
// reports whether the method was cleared.
func (s *AddressService) revalidateShippingMethod(ctx context.Context, chk *model.Checkout) (bool, error) {
	if chk.ShippingMethodID == nil {
		return false, nil
	}
	method, err := s.shipping.MethodByID(ctx, *chk.ShippingMethodID)
	if err != nil {
		return false, err
	}
	zone, err := s.shipping.ZoneByID(ctx, method.ShippingZoneID)
	if err != nil {
		return false, err
	}
	if zone.Covers(chk.Country) {
		return false, nil
	}
	if err := s.store.ClearShippingMethod(ctx, chk.ID); err != nil {
		return false, err
	}
	chk.ShippingMethodID = nil
	return true, nil
}
