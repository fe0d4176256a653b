package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/checkout-stock-reservation/internal/checkout"
	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

// CheckoutRepo persists checkouts and their lines on MySQL.  It
// implements checkout.Store.  The shipping address lives in
// nullable shipping_* columns on the checkouts row; an address is
// considered set when shipping_country is non-NULL.
type CheckoutRepo struct {
	db *sql.DB
}

// NewCheckoutRepo returns a CheckoutRepo bound to the given database.
func NewCheckoutRepo(db *sql.DB) *CheckoutRepo { return &CheckoutRepo{db: db} }

// CheckoutByID loads a checkout with its shipping address, when
// set.  Returns checkout.ErrCheckoutNotFound for an unknown id.
func (r *CheckoutRepo) CheckoutByID(ctx context.Context, id uint64) (*model.Checkout, error) {
	const q = `SELECT id, channel_id, country,
                      shipping_first_name, shipping_last_name,
                      shipping_street_address_1, shipping_street_address_2,
                      shipping_city, shipping_country_area, shipping_postal_code,
                      shipping_country, shipping_phone,
                      shipping_method_id, last_change, created_at
               FROM checkouts WHERE id = ?`
	var (
		chk        model.Checkout
		firstName  sql.NullString
		lastName   sql.NullString
		street1    sql.NullString
		street2    sql.NullString
		city       sql.NullString
		area       sql.NullString
		postalCode sql.NullString
		country    sql.NullString
		phone      sql.NullString
		methodID   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&chk.ID, &chk.ChannelID, &chk.Country,
		&firstName, &lastName, &street1, &street2,
		&city, &area, &postalCode, &country, &phone,
		&methodID, &chk.LastChange, &chk.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrCheckoutNotFound
	}
	if err != nil {
		return nil, err
	}
	if country.Valid {
		chk.ShippingAddress = &model.Address{
			FirstName:      firstName.String,
			LastName:       lastName.String,
			StreetAddress1: street1.String,
			StreetAddress2: street2.String,
			City:           city.String,
			CountryArea:    area.String,
			PostalCode:     postalCode.String,
			Country:        country.String,
			Phone:          phone.String,
		}
	}
	if methodID.Valid {
		mid := uint64(methodID.Int64)
		chk.ShippingMethodID = &mid
	}
	return &chk, nil
}

// LinesByCheckout returns all lines of the checkout ordered by id.
func (r *CheckoutRepo) LinesByCheckout(ctx context.Context, checkoutID uint64) ([]model.CheckoutLine, error) {
	const q = `SELECT id, checkout_id, variant_id, quantity, created_at
               FROM checkout_lines WHERE checkout_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, checkoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []model.CheckoutLine
	for rows.Next() {
		var l model.CheckoutLine
		if err := rows.Scan(&l.ID, &l.CheckoutID, &l.VariantID, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// LineByID loads one line.  Returns reservation.ErrLineNotFound for
// an unknown id.
func (r *CheckoutRepo) LineByID(ctx context.Context, lineID uint64) (*model.CheckoutLine, error) {
	const q = `SELECT id, checkout_id, variant_id, quantity, created_at FROM checkout_lines WHERE id = ?`
	var l model.CheckoutLine
	err := r.db.QueryRowContext(ctx, q, lineID).Scan(&l.ID, &l.CheckoutID, &l.VariantID, &l.Quantity, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// InsertLine persists a line and fills in its generated ID.
func (r *CheckoutRepo) InsertLine(ctx context.Context, line *model.CheckoutLine) error {
	const q = `INSERT INTO checkout_lines (checkout_id, variant_id, quantity) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, line.CheckoutID, line.VariantID, line.Quantity)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	line.ID = uint64(id)
	return nil
}

// DeleteLine removes a line.  Deleting an already removed line is a
// no-op.
func (r *CheckoutRepo) DeleteLine(ctx context.Context, lineID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM checkout_lines WHERE id = ?`, lineID)
	return err
}

// UpdateShippingAddress writes the address columns, sets the
// checkout country from the address and bumps last_change to at.
// This is the only mutation of the update flow, so a validation
// failure upstream leaves last_change untouched.
func (r *CheckoutRepo) UpdateShippingAddress(ctx context.Context, checkoutID uint64, addr model.Address, at time.Time) error {
	const q = `UPDATE checkouts SET
                   shipping_first_name = ?, shipping_last_name = ?,
                   shipping_street_address_1 = ?, shipping_street_address_2 = ?,
                   shipping_city = ?, shipping_country_area = ?, shipping_postal_code = ?,
                   shipping_country = ?, shipping_phone = ?,
                   country = ?, last_change = ?
               WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q,
		addr.FirstName, addr.LastName,
		addr.StreetAddress1, addr.StreetAddress2,
		addr.City, addr.CountryArea, addr.PostalCode,
		addr.Country, addr.Phone,
		addr.Country, at.UTC(),
		checkoutID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return checkout.ErrCheckoutNotFound
	}
	return nil
}

// ClearShippingMethod sets the checkout's shipping method to NULL.
// The address fields written earlier in the flow stay persisted.
func (r *CheckoutRepo) ClearShippingMethod(ctx context.Context, checkoutID uint64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE checkouts SET shipping_method_id = NULL WHERE id = ?`, checkoutID)
	return err
}
