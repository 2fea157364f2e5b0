package domain

const (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold int64 = 250
	// FlatShippingFee applies to non-empty subtotals up to the threshold.
	FlatShippingFee int64 = 12
)

// ShippingFor returns the shipping charge for a subtotal.
func ShippingFor(subtotal int64) int64 {
	if subtotal == 0 || subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}
