// Package queue defines the message payloads exchanged over the
// broker: inbound commands consumed by this service and outbound
// events published for downstream consumers.  Every outbound event
// carries a unique EventID so consumers can deduplicate redeliveries.
package queue

// Queue names used on the broker.
const (
	// AddressUpdateQueue carries inbound shipping-address update
	// commands for checkouts.
	AddressUpdateQueue = "checkout.address.update"

	// AddressUpdatedQueue carries the outcome of processed address
	// updates.
	AddressUpdatedQueue = "checkout.address.updated"

	// LineQueue carries inbound add/remove commands for checkout
	// lines.
	LineQueue = "checkout.line"

	// StockReservedQueue carries events for newly created holds.
	StockReservedQueue = "stock.reserved"

	// ReservationReleasedQueue carries events for released holds.
	ReservationReleasedQueue = "reservation.released"
)

// AddressUpdateCommand asks the service to set a checkout's
// shipping address.  It is the message body on AddressUpdateQueue.
type AddressUpdateCommand struct {
	CheckoutID     uint64 `json:"checkout_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	StreetAddress1 string `json:"street_address_1"`
	StreetAddress2 string `json:"street_address_2,omitempty"`
	City           string `json:"city"`
	CountryArea    string `json:"country_area,omitempty"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	Phone          string `json:"phone,omitempty"`
}

// Operations accepted on LineQueue.
const (
	OpAddLine    = "add"
	OpRemoveLine = "remove"
)

// LineCommand asks the service to add a variant to a checkout or
// to remove an existing line.  Op selects the operation; AddLine
// reads CheckoutID, VariantID and Quantity, RemoveLine reads
// LineID.
type LineCommand struct {
	Op         string `json:"op"`
	CheckoutID uint64 `json:"checkout_id,omitempty"`
	VariantID  uint64 `json:"variant_id,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	LineID     uint64 `json:"line_id,omitempty"`
}

// CheckoutAddressUpdatedEvent reports a successfully persisted
// address update.  ShippingMethodCleared tells consumers whether
// the previously selected method was dropped because the new
// destination fell outside its zone.
type CheckoutAddressUpdatedEvent struct {
	EventID               string `json:"event_id"`
	CheckoutID            uint64 `json:"checkout_id"`
	Country               string `json:"country"`
	ShippingMethodCleared bool   `json:"shipping_method_cleared"`
	UpdatedAt             string `json:"updated_at"`
}

// StockReservedEvent reports a new hold on stock units.
type StockReservedEvent struct {
	EventID        string `json:"event_id"`
	CheckoutLineID uint64 `json:"checkout_line_id"`
	StockID        uint64 `json:"stock_id"`
	Quantity       int    `json:"quantity"`
	ReservedUntil  string `json:"reserved_until"`
}

// ReservationReleasedEvent reports that a checkout line's holds
// were dropped.
type ReservationReleasedEvent struct {
	EventID        string `json:"event_id"`
	CheckoutLineID uint64 `json:"checkout_line_id"`
	ReleasedAt     string `json:"released_at"`
}
