package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/repository"
)

type fakeDirectory struct {
	channels     map[string]*model.Channel
	stocks       []model.Stock
	reservations []model.Reservation
}

func (f *fakeDirectory) ChannelBySlug(ctx context.Context, slug string) (*model.Channel, error) {
	ch, ok := f.channels[slug]
	if !ok {
		return nil, repository.ErrChannelNotFound
	}
	return ch, nil
}

func (f *fakeDirectory) EligibleStocks(ctx context.Context, variantID, channelID uint64, country string) ([]model.Stock, error) {
	var out []model.Stock
	for _, s := range f.stocks {
		if s.VariantID == variantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.StockID == stockID && r.ActiveAt(asOf) {
			out = append(out, r)
		}
	}
	return out, nil
}

func doEstimate(t *testing.T, dir *fakeDirectory, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/variants/:id/availability")
	c.SetParamNames("id")
	c.SetParamValues(pathVariant(target))
	h := NewAvailabilityHandler(dir, dir, dir, nil)
	require.NoError(t, h.Estimate(c))
	return rec
}

// pathVariant pulls the :id segment out of a request target like
// /v1/variants/42/availability?....
func pathVariant(target string) string {
	const prefix = "/v1/variants/"
	rest := target[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i]
		}
	}
	return rest
}

func TestEstimate_SumsEligibleStocks(t *testing.T) {
	dir := &fakeDirectory{
		channels: map[string]*model.Channel{"default": {ID: 1, Slug: "default"}},
		stocks: []model.Stock{
			{ID: 1, VariantID: 42, Quantity: 5},
			{ID: 2, VariantID: 42, Quantity: 3},
		},
		reservations: []model.Reservation{
			{ID: 1, CheckoutLineID: 7, StockID: 1, QuantityReserved: 2, ReservedUntil: time.Now().Add(time.Hour)},
		},
	}

	rec := doEstimate(t, dir, "/v1/variants/42/availability?country=us&channel=default")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		VariantID uint64 `json:"variant_id"`
		Country   string `json:"country"`
		Available int    `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(42), body.VariantID)
	assert.Equal(t, "US", body.Country, "country is normalized to upper case")
	assert.Equal(t, 6, body.Available)
}

func TestEstimate_ExpiredHoldsDoNotCount(t *testing.T) {
	dir := &fakeDirectory{
		channels: map[string]*model.Channel{"default": {ID: 1, Slug: "default"}},
		stocks:   []model.Stock{{ID: 1, VariantID: 42, Quantity: 4}},
		reservations: []model.Reservation{
			{ID: 1, CheckoutLineID: 7, StockID: 1, QuantityReserved: 4, ReservedUntil: time.Now().Add(-time.Minute)},
		},
	}

	rec := doEstimate(t, dir, "/v1/variants/42/availability?country=US&channel=default")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Available int `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Available)
}

func TestEstimate_UnknownChannel(t *testing.T) {
	dir := &fakeDirectory{channels: map[string]*model.Channel{}}

	rec := doEstimate(t, dir, "/v1/variants/42/availability?country=US&channel=nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimate_MissingParams(t *testing.T) {
	dir := &fakeDirectory{channels: map[string]*model.Channel{"default": {ID: 1, Slug: "default"}}}

	tests := []struct {
		name   string
		target string
	}{
		{"missing country", "/v1/variants/42/availability?channel=default"},
		{"missing channel", "/v1/variants/42/availability?country=US"},
		{"bad variant id", "/v1/variants/abc/availability?country=US&channel=default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doEstimate(t, dir, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
