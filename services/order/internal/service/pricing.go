package service

// Pricing holds checkout charges in cents. TaxRateBps is in basis points.
type Pricing struct {
	FreeShippingThreshold int64
	ShippingFlat          int64
	TaxRateBps            int64
}

var DefaultPricing = Pricing{
	FreeShippingThreshold: 5000,
	ShippingFlat:          999,
	TaxRateBps:            800,
}

// Shipping is free for an empty cart and for subtotals at or above the threshold.
func (p Pricing) Shipping(subtotal int64) int64 {
	if subtotal <= 0 || subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFlat
}

// Tax is charged on the subtotal and rounded half up to the cent.
func (p Pricing) Tax(subtotal int64) int64 {
	if subtotal <= 0 || p.TaxRateBps <= 0 {
		return 0
	}
	return (subtotal*p.TaxRateBps + 5000) / 10000
}
