// Package repository implements the persistence interfaces of the
// core packages on MySQL.  All SQL lives here; timestamps are
// stored and compared in UTC (the DSN pins the session location).
// Methods suffixed Tx run inside a caller-provided transaction.
package repository

import (
	"context"
	"database/sql"

	"github.com/example/checkout-stock-reservation/internal/model"
)

// StockRepo reads stock rows and resolves shipping-zone
// eligibility.  It satisfies checkout.StockDirectory.
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo returns a StockRepo bound to the given database.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// EligibleStocks returns the stocks of a variant that can ship to
// the destination country within the channel: the stock's warehouse
// must belong to a shipping zone that is linked to the channel and
// lists the country.  A channel with no zones, or a country no zone
// of the channel covers, yields an empty slice and no error.
func (r *StockRepo) EligibleStocks(ctx context.Context, variantID, channelID uint64, country string) ([]model.Stock, error) {
	const q = `SELECT DISTINCT s.id, s.warehouse_id, s.variant_id, s.quantity, s.updated_at
               FROM stocks s
               JOIN shipping_zone_warehouses zw ON zw.warehouse_id = s.warehouse_id
               JOIN shipping_zone_channels zc ON zc.shipping_zone_id = zw.shipping_zone_id
               JOIN shipping_zone_countries cc ON cc.shipping_zone_id = zw.shipping_zone_id
               WHERE s.variant_id = ? AND zc.channel_id = ? AND cc.country = ?
               ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q, variantID, channelID, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stocks []model.Stock
	for rows.Next() {
		var s model.Stock
		if err := rows.Scan(&s.ID, &s.WarehouseID, &s.VariantID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stocks, nil
}
