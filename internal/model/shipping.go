package model

// Channel is a sales channel (storefront) checkouts belong to.
// Shipping zones are attached per channel; a channel with no
// zones cannot ship anywhere, so every stock check against it
// fails.
//
// Fields:
//
//	ID       – primary key identifier.
//	Slug     – unique channel identifier.
//	Name     – human readable name.
//	IsActive – whether the channel accepts checkouts.
type Channel struct {
	ID       uint64 // channels.id
	Slug     string // channels.slug
	Name     string // channels.name
	IsActive bool   // channels.is_active
}

// ShippingZone groups destination countries served by a set of
// warehouses.  Countries holds upper case ISO 3166-1 alpha-2
// codes loaded from the shipping_zone_countries table.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – zone name, e.g. "North America".
//	Countries – country codes the zone covers.
type ShippingZone struct {
	ID        uint64   // shipping_zones.id
	Name      string   // shipping_zones.name
	Countries []string // shipping_zone_countries.country
}

// Covers reports whether the zone serves the given country code.
func (z ShippingZone) Covers(country string) bool {
	for _, c := range z.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// ShippingMethod is a delivery option offered inside one shipping
// zone.  A method is valid for a checkout only while the zone of
// the method covers the checkout's destination country.
//
// Fields:
//
//	ID             – primary key identifier.
//	ShippingZoneID – zone the method ships within.
//	Name           – human readable name, e.g. "DHL Express".
type ShippingMethod struct {
	ID             uint64 // shipping_methods.id
	ShippingZoneID uint64 // shipping_methods.shipping_zone_id
	Name           string // shipping_methods.name
}
