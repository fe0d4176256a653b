package model

import "time"

// Address holds the shipping destination entered by the customer.
// Only the fields this service acts on are modelled; schema level
// validation of the individual fields happens upstream.
//
// Fields:
//
//	FirstName      – recipient first name.
//	LastName       – recipient last name.
//	StreetAddress1 – first street line.
//	StreetAddress2 – optional second street line.
//	City           – city name.
//	CountryArea    – state / province / region.
//	PostalCode     – postal or ZIP code.
//	Country        – ISO 3166-1 alpha-2 country code, upper case.
//	Phone          – optional phone number, stored as given.
type Address struct {
	FirstName      string // checkouts.shipping_first_name
	LastName       string // checkouts.shipping_last_name
	StreetAddress1 string // checkouts.shipping_street_address_1
	StreetAddress2 string // checkouts.shipping_street_address_2
	City           string // checkouts.shipping_city
	CountryArea    string // checkouts.shipping_country_area
	PostalCode     string // checkouts.shipping_postal_code
	Country        string // checkouts.shipping_country
	Phone          string // checkouts.shipping_phone
}

// Checkout is an in-progress, not yet completed order.  The
// destination country drives which warehouses may serve the
// checkout; changing it re-validates every line and may clear a
// previously selected shipping method.  LastChange is bumped only
// when a mutation actually persists something.
//
// Fields:
//
//	ID               – primary key identifier.
//	ChannelID        – sales channel the checkout was opened in.
//	Country          – current destination country code.
//	ShippingAddress  – full shipping address, nil until set.
//	ShippingMethodID – selected shipping method, nil when none.
//	LastChange       – timestamp of the last persisted mutation.
//	CreatedAt        – creation timestamp.
type Checkout struct {
	ID               uint64    // checkouts.id
	ChannelID        uint64    // checkouts.channel_id
	Country          string    // checkouts.country
	ShippingAddress  *Address  // checkouts.shipping_* columns (nil when unset)
	ShippingMethodID *uint64   // checkouts.shipping_method_id (nullable)
	LastChange       time.Time // checkouts.last_change
	CreatedAt        time.Time // checkouts.created_at
}

// CheckoutLine is one variant/quantity entry in a checkout.  A
// line is owned by exactly one checkout; reservations reference
// lines, never checkouts directly.
//
// Fields:
//
//	ID         – primary key identifier.
//	CheckoutID – owning checkout.
//	VariantID  – product variant requested.
//	Quantity   – units requested (> 0).
//	CreatedAt  – creation timestamp.
type CheckoutLine struct {
	ID         uint64    // checkout_lines.id
	CheckoutID uint64    // checkout_lines.checkout_id
	VariantID  uint64    // checkout_lines.variant_id
	Quantity   int       // checkout_lines.quantity
	CreatedAt  time.Time // checkout_lines.created_at
}
