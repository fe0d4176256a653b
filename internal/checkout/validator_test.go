package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

func TestValidator_AvailableQuantity_SumsAcrossEligibleStocks(t *testing.T) {
	backend := newFakeBackend()
	backend.addEligibleStock(1, 100, 1, "US", 3)
	backend.addEligibleStock(2, 100, 1, "US", 2)
	backend.addEligibleStock(3, 100, 1, "PL", 50) // wrong country, not eligible
	v := NewValidator(backend, backend).WithClock(fixedClock)

	total, err := v.AvailableQuantity(context.Background(), 100, 1, "US", now, 0)

	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestValidator_AvailableQuantity_SubtractsActiveHolds(t *testing.T) {
	backend := newFakeBackend()
	backend.addEligibleStock(1, 100, 1, "US", 5)
	backend.addLine(10, 500, 100, 2)
	backend.addHold(10, 1, 2, now.Add(5*time.Minute))

	v := NewValidator(backend, backend).WithClock(fixedClock)

	total, err := v.AvailableQuantity(context.Background(), 100, 1, "US", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// The holding checkout itself sees the full quantity.
	own, err := v.AvailableQuantity(context.Background(), 100, 1, "US", now, 500)
	require.NoError(t, err)
	assert.Equal(t, 5, own)
}

func TestValidator_AvailableQuantity_IgnoresExpiredHolds(t *testing.T) {
	backend := newFakeBackend()
	backend.addEligibleStock(1, 100, 1, "US", 2)
	backend.addLine(10, 500, 100, 2)
	backend.addHold(10, 1, 2, now.Add(-time.Minute))
	v := NewValidator(backend, backend).WithClock(fixedClock)

	total, err := v.AvailableQuantity(context.Background(), 100, 1, "US", now, 0)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestValidator_AvailableQuantity_OversoldStockCountsAsEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.addEligibleStock(1, 100, 1, "US", 1)
	backend.addEligibleStock(2, 100, 1, "US", 4)
	backend.addLine(10, 500, 100, 3)
	backend.addHold(10, 1, 3, now.Add(5*time.Minute)) // oversold stock 1
	v := NewValidator(backend, backend).WithClock(fixedClock)

	total, err := v.AvailableQuantity(context.Background(), 100, 1, "US", now, 0)

	require.NoError(t, err)
	assert.Equal(t, 4, total, "the oversold stock contributes zero, never a negative")
}

func TestValidator_ValidateLine(t *testing.T) {
	backend := newFakeBackend()
	backend.addEligibleStock(1, 100, 1, "US", 2)
	v := NewValidator(backend, backend).WithClock(fixedClock)
	line := model.CheckoutLine{ID: 10, CheckoutID: 500, VariantID: 100, Quantity: 2}

	assert.NoError(t, v.ValidateLine(context.Background(), line, 1, "US"))

	line.Quantity = 3
	err := v.ValidateLine(context.Background(), line, 1, "US")
	var insufficient *reservation.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "quantity", insufficient.Field())
	assert.Equal(t, "INSUFFICIENT_STOCK", insufficient.Code())
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)
}

func TestValidator_ValidateLine_NoEligibleStocks(t *testing.T) {
	// A channel without shipping zones covering the destination has
	// empty eligibility by definition.
	backend := newFakeBackend()
	v := NewValidator(backend, backend).WithClock(fixedClock)
	line := model.CheckoutLine{ID: 10, CheckoutID: 500, VariantID: 100, Quantity: 1}

	err := v.ValidateLine(context.Background(), line, 1, "US")

	var insufficient *reservation.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "quantity", insufficient.Field())
	assert.Equal(t, 0, insufficient.Available)
}
