package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

// fakeBackend is a single in-memory stand-in for every persistence
// interface the checkout services consume: the checkout Store, the
// stock directory, the reservation source and the ledger's
// reservation.Store.  Sharing one state bag keeps the scenarios
// coherent (a hold created through the ledger is visible to the
// validator).
type fakeBackend struct {
	checkouts    map[uint64]*model.Checkout
	lines        map[uint64]*model.CheckoutLine
	stocks       map[uint64]*model.Stock
	eligible     map[string][]uint64 // variant/channel/country -> stock ids
	reservations []model.Reservation
	nextLineID   uint64
	nextResID    uint64

	addressUpdated bool
	methodCleared  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		checkouts: make(map[uint64]*model.Checkout),
		lines:     make(map[uint64]*model.CheckoutLine),
		stocks:    make(map[uint64]*model.Stock),
		eligible:  make(map[string][]uint64),
	}
}

func eligKey(variantID, channelID uint64, country string) string {
	return fmt.Sprintf("%d/%d/%s", variantID, channelID, country)
}

func (f *fakeBackend) addCheckout(id, channelID uint64, country string, methodID *uint64) *model.Checkout {
	chk := &model.Checkout{ID: id, ChannelID: channelID, Country: country, ShippingMethodID: methodID}
	f.checkouts[id] = chk
	return chk
}

func (f *fakeBackend) addLine(id, checkoutID, variantID uint64, quantity int) *model.CheckoutLine {
	line := &model.CheckoutLine{ID: id, CheckoutID: checkoutID, VariantID: variantID, Quantity: quantity}
	f.lines[id] = line
	if id > f.nextLineID {
		f.nextLineID = id
	}
	return line
}

// addEligibleStock registers a stock and makes it eligible for the
// variant on the channel toward the country.
func (f *fakeBackend) addEligibleStock(stockID, variantID, channelID uint64, country string, quantity int) {
	f.stocks[stockID] = &model.Stock{ID: stockID, WarehouseID: stockID, VariantID: variantID, Quantity: quantity}
	key := eligKey(variantID, channelID, country)
	f.eligible[key] = append(f.eligible[key], stockID)
}

func (f *fakeBackend) addHold(lineID, stockID uint64, quantity int, until time.Time) {
	f.nextResID++
	f.reservations = append(f.reservations, model.Reservation{
		ID:               f.nextResID,
		CheckoutLineID:   lineID,
		StockID:          stockID,
		QuantityReserved: quantity,
		ReservedUntil:    until,
	})
}

// --- StockDirectory ---

func (f *fakeBackend) EligibleStocks(ctx context.Context, variantID, channelID uint64, country string) ([]model.Stock, error) {
	var out []model.Stock
	for _, id := range f.eligible[eligKey(variantID, channelID, country)] {
		out = append(out, *f.stocks[id])
	}
	return out, nil
}

// --- ReservationSource / reservation.Store reads ---

func (f *fakeBackend) ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.StockID != stockID || !r.ActiveAt(asOf) {
			continue
		}
		if excludeCheckoutID != 0 {
			if line, ok := f.lines[r.CheckoutLineID]; ok && line.CheckoutID == excludeCheckoutID {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBackend) StockByID(ctx context.Context, stockID uint64) (*model.Stock, error) {
	st, ok := f.stocks[stockID]
	if !ok {
		return nil, reservation.ErrStockNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeBackend) CheckoutIDForLine(ctx context.Context, lineID uint64) (uint64, error) {
	line, ok := f.lines[lineID]
	if !ok {
		return 0, reservation.ErrLineNotFound
	}
	return line.CheckoutID, nil
}

func (f *fakeBackend) InsertReservation(ctx context.Context, r *model.Reservation) error {
	f.nextResID++
	r.ID = f.nextResID
	f.reservations = append(f.reservations, *r)
	return nil
}

func (f *fakeBackend) DeleteReservationsByLine(ctx context.Context, lineID uint64) (int64, error) {
	kept := f.reservations[:0]
	var removed int64
	for _, r := range f.reservations {
		if r.CheckoutLineID == lineID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.reservations = kept
	return removed, nil
}

func (f *fakeBackend) DeleteExpiredReservations(ctx context.Context, asOf time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeBackend) WithStockLock(ctx context.Context, stockID uint64, fn func(ctx context.Context, tx reservation.Store) error) error {
	if _, ok := f.stocks[stockID]; !ok {
		return reservation.ErrStockNotFound
	}
	return fn(ctx, f)
}

// --- checkout.Store ---

func (f *fakeBackend) CheckoutByID(ctx context.Context, id uint64) (*model.Checkout, error) {
	chk, ok := f.checkouts[id]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	cp := *chk
	return &cp, nil
}

func (f *fakeBackend) LinesByCheckout(ctx context.Context, checkoutID uint64) ([]model.CheckoutLine, error) {
	var out []model.CheckoutLine
	for _, line := range f.lines {
		if line.CheckoutID == checkoutID {
			out = append(out, *line)
		}
	}
	return out, nil
}

func (f *fakeBackend) LineByID(ctx context.Context, lineID uint64) (*model.CheckoutLine, error) {
	line, ok := f.lines[lineID]
	if !ok {
		return nil, reservation.ErrLineNotFound
	}
	cp := *line
	return &cp, nil
}

func (f *fakeBackend) InsertLine(ctx context.Context, line *model.CheckoutLine) error {
	f.nextLineID++
	line.ID = f.nextLineID
	cp := *line
	f.lines[line.ID] = &cp
	return nil
}

func (f *fakeBackend) DeleteLine(ctx context.Context, lineID uint64) error {
	delete(f.lines, lineID)
	return nil
}

func (f *fakeBackend) UpdateShippingAddress(ctx context.Context, checkoutID uint64, addr model.Address, at time.Time) error {
	chk, ok := f.checkouts[checkoutID]
	if !ok {
		return ErrCheckoutNotFound
	}
	chk.ShippingAddress = &addr
	chk.Country = addr.Country
	chk.LastChange = at
	f.addressUpdated = true
	return nil
}

func (f *fakeBackend) ClearShippingMethod(ctx context.Context, checkoutID uint64) error {
	chk, ok := f.checkouts[checkoutID]
	if !ok {
		return ErrCheckoutNotFound
	}
	chk.ShippingMethodID = nil
	f.methodCleared = true
	return nil
}

// fakeShipping implements ShippingDirectory from two maps.
type fakeShipping struct {
	methods map[uint64]*model.ShippingMethod
	zones   map[uint64]*model.ShippingZone
}

func newFakeShipping() *fakeShipping {
	return &fakeShipping{
		methods: make(map[uint64]*model.ShippingMethod),
		zones:   make(map[uint64]*model.ShippingZone),
	}
}

func (f *fakeShipping) addMethod(id, zoneID uint64, countries ...string) {
	f.methods[id] = &model.ShippingMethod{ID: id, ShippingZoneID: zoneID, Name: "standard"}
	f.zones[zoneID] = &model.ShippingZone{ID: zoneID, Name: "zone", Countries: countries}
}

func (f *fakeShipping) MethodByID(ctx context.Context, id uint64) (*model.ShippingMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, ErrShippingMethodNotFound
	}
	return m, nil
}

func (f *fakeShipping) ZoneByID(ctx context.Context, id uint64) (*model.ShippingZone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, ErrShippingZoneNotFound
	}
	return z, nil
}
