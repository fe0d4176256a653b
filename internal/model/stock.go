package model

import "time"

// Warehouse is a physical fulfilment location holding stock.
// Warehouses ship to customers through the shipping zones they
// are assigned to; a warehouse with no zone cannot serve any
// destination.
//
// Fields:
//
//	ID        – primary key identifier.
//	Slug      – unique, URL-safe warehouse identifier.
//	Name      – human readable warehouse name.
//	CreatedAt – creation timestamp.
type Warehouse struct {
	ID        uint64    // warehouses.id
	Slug      string    // warehouses.slug
	Name      string    // warehouses.name
	CreatedAt time.Time // warehouses.created_at
}

// Stock is the on-hand quantity of one product variant in one
// warehouse.  Quantity is the raw physical count and never goes
// negative; what a checkout may actually take is the quantity
// minus active reservations, computed by the availability
// package.  Quantity is mutated by inventory management, which
// is outside this service; here it is read-only.
//
// Fields:
//
//	ID          – primary key identifier.
//	WarehouseID – warehouse holding the units.
//	VariantID   – product variant stored.
//	Quantity    – physical units on hand (>= 0).
//	UpdatedAt   – last update timestamp.
type Stock struct {
	ID          uint64    // stocks.id
	WarehouseID uint64    // stocks.warehouse_id
	VariantID   uint64    // stocks.variant_id
	Quantity    int       // stocks.quantity
	UpdatedAt   time.Time // stocks.updated_at
}
