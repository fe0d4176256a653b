package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/checkout-stock-reservation/internal/availability"
	"github.com/example/checkout-stock-reservation/internal/cache"
	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/repository"
)

// ChannelDirectory resolves channels by slug.
type ChannelDirectory interface {
	ChannelBySlug(ctx context.Context, slug string) (*model.Channel, error)
}

// StockDirectory resolves eligible stocks for a variant and
// destination inside a channel.
type StockDirectory interface {
	EligibleStocks(ctx context.Context, variantID, channelID uint64, country string) ([]model.Stock, error)
}

// ReservationSource supplies active reservations per stock.
type ReservationSource interface {
	ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error)
}

// AvailabilityHandler serves display-only availability estimates.
// Estimates read without locks and may be cached, so they can be a
// little stale; reservation writes re-check availability under the
// stock row lock and never consult this path.
type AvailabilityHandler struct {
	Channels     ChannelDirectory
	Stocks       StockDirectory
	Reservations ReservationSource
	Cache        *cache.AvailabilityCache
	now          func() time.Time
}

// NewAvailabilityHandler constructs an AvailabilityHandler.  Cache
// may be nil; estimates are then always computed from the database.
func NewAvailabilityHandler(channels ChannelDirectory, stocks StockDirectory, reservations ReservationSource, estimateCache *cache.AvailabilityCache) *AvailabilityHandler {
	return &AvailabilityHandler{
		Channels:     channels,
		Stocks:       stocks,
		Reservations: reservations,
		Cache:        estimateCache,
		now:          time.Now,
	}
}

// Estimate handles GET /v1/variants/:id/availability.  It expects
// "country" and "channel" query parameters and returns the summed
// availability of the variant across all eligible stocks, clamped
// at zero.  Oversold stocks are logged and displayed as empty.
func (h *AvailabilityHandler) Estimate(c echo.Context) error {
	variantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || variantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant id"})
	}
	country := strings.ToUpper(strings.TrimSpace(c.QueryParam("country")))
	if country == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "country is required"})
	}
	channelSlug := c.QueryParam("channel")
	if channelSlug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "channel is required"})
	}
	ctx := c.Request().Context()

	if avail, ok := h.Cache.Get(ctx, variantID, channelSlug, country); ok {
		return c.JSON(http.StatusOK, echo.Map{
			"variant_id": variantID,
			"country":    country,
			"available":  avail,
		})
	}

	channel, err := h.Channels.ChannelBySlug(ctx, channelSlug)
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	stocks, err := h.Stocks.EligibleStocks(ctx, variantID, channel.ID, country)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	asOf := h.now().UTC()
	total := 0
	for _, s := range stocks {
		active, err := h.Reservations.ActiveReservations(ctx, s.ID, asOf, 0)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		avail, availErr := availability.Available(s, active, asOf)
		if availErr != nil {
			log.Printf("availability-handler: %v", availErr)
		}
		total += avail
	}

	h.Cache.Set(ctx, variantID, channelSlug, country, total)
	return c.JSON(http.StatusOK, echo.Map{
		"variant_id": variantID,
		"country":    country,
		"available":  total,
	})
}
