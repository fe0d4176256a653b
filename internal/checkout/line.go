package checkout

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/checkout-stock-reservation/internal/availability"
	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/queue"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

// Settings carries the site configuration this service reads:
// whether adding a line places a hold on stock and for how long.
type Settings struct {
	ReservationsEnabled bool
	ReservationDuration time.Duration
}

// LineService adds and removes checkout lines.  When reservations
// are enabled, adding a line immediately holds the requested units
// against eligible stock so competing checkouts see them as taken;
// removing a line releases its holds.
type LineService struct {
	store           Store
	stocks          StockDirectory
	reservations    ReservationSource
	ledger          *reservation.Ledger
	settings        Settings
	publishReserved func(ctx context.Context, ev queue.StockReservedEvent) error
	publishReleased func(ctx context.Context, ev queue.ReservationReleasedEvent) error
	now             func() time.Time
}

// NewLineService wires a LineService.  The publish funcs may be
// nil; events are then skipped.
func NewLineService(store Store, stocks StockDirectory, reservations ReservationSource, ledger *reservation.Ledger, settings Settings) *LineService {
	return &LineService{
		store:        store,
		stocks:       stocks,
		reservations: reservations,
		ledger:       ledger,
		settings:     settings,
		now:          time.Now,
	}
}

// WithPublishers sets the outbound event hooks.
func (s *LineService) WithPublishers(reserved func(ctx context.Context, ev queue.StockReservedEvent) error, released func(ctx context.Context, ev queue.ReservationReleasedEvent) error) *LineService {
	s.publishReserved = reserved
	s.publishReleased = released
	return s
}

// WithClock overrides the service's time source for tests.
func (s *LineService) WithClock(now func() time.Time) *LineService {
	s.now = now
	return s
}

// AddLine appends a variant to the checkout.  When the checkout
// already has a destination country the requested quantity is
// validated against eligible stock first; with reservations enabled
// the units are then held, split greedily across the eligible
// stocks with the most room.  A checkout without a destination gets
// the line without any check or hold: eligibility is unknowable
// until an address is set.
//
// On a reservation race lost to a competing checkout the line and
// any partial holds are rolled back and the insufficient stock
// failure is returned.
func (s *LineService) AddLine(ctx context.Context, checkoutID, variantID uint64, quantity int) (*model.CheckoutLine, error) {
	if quantity <= 0 {
		return nil, reservation.ErrInvalidQuantity
	}
	chk, err := s.store.CheckoutByID(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	var stocks []model.Stock
	if chk.Country != "" {
		asOf := s.now().UTC()
		stocks, err = s.rankedStocks(ctx, variantID, chk, asOf)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, st := range stocks {
			total += st.Quantity // Quantity already reduced to availability by rankedStocks
		}
		if total < quantity {
			return nil, &reservation.InsufficientStockError{VariantID: variantID, Requested: quantity, Available: total}
		}
	}

	line := &model.CheckoutLine{CheckoutID: chk.ID, VariantID: variantID, Quantity: quantity}
	if err := s.store.InsertLine(ctx, line); err != nil {
		return nil, err
	}

	if s.settings.ReservationsEnabled && chk.Country != "" {
		if err := s.reserveLine(ctx, line, stocks); err != nil {
			// Lost the margin to a concurrent checkout between the check
			// and the locked reserve.  Roll the line back fully.
			if relErr := s.ledger.Release(ctx, line.ID); relErr != nil {
				log.Printf("checkout-lines: rollback release failed for line %d: %v", line.ID, relErr)
			}
			if delErr := s.store.DeleteLine(ctx, line.ID); delErr != nil {
				log.Printf("checkout-lines: rollback delete failed for line %d: %v", line.ID, delErr)
			}
			return nil, err
		}
	}
	return line, nil
}

// RemoveLine deletes the line and releases every hold it owns.
func (s *LineService) RemoveLine(ctx context.Context, lineID uint64) error {
	line, err := s.store.LineByID(ctx, lineID)
	if err != nil {
		return err
	}
	if err := s.ledger.Release(ctx, line.ID); err != nil {
		return err
	}
	if err := s.store.DeleteLine(ctx, line.ID); err != nil {
		return err
	}
	if s.publishReleased != nil {
		ev := queue.ReservationReleasedEvent{
			EventID:        uuid.NewString(),
			CheckoutLineID: line.ID,
			ReleasedAt:     s.now().UTC().Format(time.RFC3339),
		}
		if err := s.publishReleased(ctx, ev); err != nil {
			log.Printf("checkout-lines: publish release failed: %v", err)
		}
	}
	return nil
}

// rankedStocks returns the eligible stocks for the variant with
// Quantity replaced by current availability (excluding the
// checkout's own holds), sorted most-available first.  Oversold
// stocks are logged and ranked as empty.
func (s *LineService) rankedStocks(ctx context.Context, variantID uint64, chk *model.Checkout, asOf time.Time) ([]model.Stock, error) {
	stocks, err := s.stocks.EligibleStocks(ctx, variantID, chk.ChannelID, chk.Country)
	if err != nil {
		return nil, err
	}
	ranked := make([]model.Stock, 0, len(stocks))
	for _, st := range stocks {
		active, err := s.reservations.ActiveReservations(ctx, st.ID, asOf, chk.ID)
		if err != nil {
			return nil, err
		}
		avail, availErr := availability.Available(st, active, asOf)
		if availErr != nil {
			log.Printf("checkout-lines: %v", availErr)
		}
		st.Quantity = avail
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Quantity > ranked[j].Quantity })
	return ranked, nil
}

// reserveLine holds the line's quantity against the ranked stocks,
// largest margin first, splitting across warehouses when no single
// one can take the whole quantity.
func (s *LineService) reserveLine(ctx context.Context, line *model.CheckoutLine, ranked []model.Stock) error {
	remaining := line.Quantity
	for _, st := range ranked {
		if remaining == 0 {
			break
		}
		if st.Quantity <= 0 {
			continue
		}
		take := remaining
		if take > st.Quantity {
			take = st.Quantity
		}
		res, err := s.ledger.Reserve(ctx, line.ID, st.ID, take, s.settings.ReservationDuration)
		if err != nil {
			return err
		}
		remaining -= take
		if s.publishReserved != nil {
			ev := queue.StockReservedEvent{
				EventID:        uuid.NewString(),
				CheckoutLineID: line.ID,
				StockID:        st.ID,
				Quantity:       take,
				ReservedUntil:  res.ReservedUntil.Format(time.RFC3339),
			}
			if err := s.publishReserved(ctx, ev); err != nil {
				log.Printf("checkout-lines: publish reserved failed: %v", err)
			}
		}
	}
	if remaining > 0 {
		// The unlocked ranking promised more than the locked reserves
		// delivered; treat as a lost race.
		return &reservation.InsufficientStockError{VariantID: line.VariantID, Requested: line.Quantity, Available: line.Quantity - remaining}
	}
	return nil
}
