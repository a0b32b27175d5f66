package core

// Line item valuation and receipt totals. Everything here is pure and
// idempotent: the editor recomputes on every keystroke, so identical input
// must yield identical output.

// GrossCents returns quantity × unit price in float64 cents, never
// discounted. Negative quantity or price is treated as 0, matching the
// clamp-on-edit rule.
func (it LineItem) GrossCents() float64 {
	q := it.Quantity
	if q < 0 {
		q = 0
	}
	p := it.UnitPrice.Cents
	if p < 0 {
		p = 0
	}
	return q * float64(p)
}

// NetCents returns the item value after the receipt discount, in float64
// cents. While exclusion mode is active, items flagged as excluded keep
// their gross value regardless of the discount percentage.
func (it LineItem) NetCents(discountPct float64, exclusionMode bool) float64 {
	gross := it.GrossCents()
	if exclusionMode && it.Excluded {
		return gross
	}
	return gross * (1 - discountPct/100)
}

// Totals carries both figures a receipt view needs: the pre-discount
// subtotal (display only) and the post-discount total (authoritative for
// splitting). Both are rounded to cents.
type Totals struct {
	Subtotal Money
	Total    Money
}

// SubtotalCents sums gross item values in float64 cents. Total-only
// receipts have no subtotal distinct from the manual total.
func SubtotalCents(r Receipt) float64 {
	if r.Format == FormatTotalOnly {
		return float64(r.ManualTotal.Cents)
	}
	var sum float64
	for _, it := range r.Items {
		sum += it.GrossCents()
	}
	return sum
}

// TotalCents returns the discounted receipt total in full-precision float64
// cents. Total-only mode always uses the manual total with discount 0.
func TotalCents(r Receipt) float64 {
	if r.Format == FormatTotalOnly {
		return float64(r.ManualTotal.Cents)
	}
	var sum float64
	for _, it := range r.Items {
		sum += it.NetCents(r.DiscountPct, r.ExclusionMode)
	}
	return sum
}

// ComputeTotals rounds the subtotal and total to cents for display and
// persistence.
func ComputeTotals(r Receipt) Totals {
	return Totals{
		Subtotal: MoneyFromFloat(SubtotalCents(r)),
		Total:    MoneyFromFloat(TotalCents(r)),
	}
}
