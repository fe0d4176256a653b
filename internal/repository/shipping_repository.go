package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/checkout-stock-reservation/internal/checkout"
	"github.com/example/checkout-stock-reservation/internal/model"
)

// ErrChannelNotFound is returned when a channel lookup by slug
// matches nothing.
var ErrChannelNotFound = errors.New("channel not found")

// ShippingRepo reads the shipping-zone directory: zones with their
// country lists, the methods offered inside them and the channels
// they are attached to.  It implements checkout.ShippingDirectory.
type ShippingRepo struct {
	db *sql.DB
}

// NewShippingRepo returns a ShippingRepo bound to the given database.
func NewShippingRepo(db *sql.DB) *ShippingRepo { return &ShippingRepo{db: db} }

// MethodByID loads one shipping method.  Returns
// checkout.ErrShippingMethodNotFound for an unknown id.
func (r *ShippingRepo) MethodByID(ctx context.Context, id uint64) (*model.ShippingMethod, error) {
	const q = `SELECT id, shipping_zone_id, name FROM shipping_methods WHERE id = ?`
	var m model.ShippingMethod
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.ShippingZoneID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrShippingMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ZoneByID loads one shipping zone together with its covered
// country codes.  Returns checkout.ErrShippingZoneNotFound for an
// unknown id.
func (r *ShippingRepo) ZoneByID(ctx context.Context, id uint64) (*model.ShippingZone, error) {
	var z model.ShippingZone
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM shipping_zones WHERE id = ?`, id).Scan(&z.ID, &z.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrShippingZoneNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT country FROM shipping_zone_countries WHERE shipping_zone_id = ? ORDER BY country`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		z.Countries = append(z.Countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &z, nil
}

// ChannelBySlug loads a channel by its slug.  Returns
// ErrChannelNotFound when no channel matches.
func (r *ShippingRepo) ChannelBySlug(ctx context.Context, slug string) (*model.Channel, error) {
	const q = `SELECT id, slug, name, is_active FROM channels WHERE slug = ?`
	var c model.Channel
	err := r.db.QueryRowContext(ctx, q, slug).Scan(&c.ID, &c.Slug, &c.Name, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
