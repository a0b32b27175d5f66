package core

import (
	"math"
	"testing"
)

func item(qty float64, priceCents int64) LineItem {
	return LineItem{Quantity: qty, UnitPrice: Money{Cents: priceCents}}
}

func TestGrossCents(t *testing.T) {
	cases := []struct {
		name string
		item LineItem
		want float64
	}{
		{"simple", item(2, 150), 300},
		{"fractional quantity", item(0.5, 300), 150},
		{"zero quantity", item(0, 500), 0},
		{"negative quantity clamped", item(-3, 500), 0},
		{"negative price clamped", item(3, -500), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.item.GrossCents(); got != c.want {
				t.Errorf("GrossCents() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestNetCents(t *testing.T) {
	base := item(1, 1000)
	excluded := base
	excluded.Excluded = true

	cases := []struct {
		name          string
		item          LineItem
		discountPct   float64
		exclusionMode bool
		want          float64
	}{
		{"no discount", base, 0, false, 1000},
		{"ten percent off", base, 10, false, 900},
		{"full discount", base, 100, false, 0},
		{"excluded but mode off", excluded, 10, false, 900},
		{"excluded and mode on", excluded, 10, true, 1000},
		{"not excluded while mode on", base, 10, true, 900},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.item.NetCents(c.discountPct, c.exclusionMode)
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("NetCents(%v, %v) = %v, want %v", c.discountPct, c.exclusionMode, got, c.want)
			}
		})
	}
}

// The discounted total over all items must equal the gross total scaled by
// the discount, within cent tolerance, when nothing is excluded.
func TestDiscountDistribution(t *testing.T) {
	items := []LineItem{item(3, 199), item(1, 1050), item(2.5, 89), item(1, 1)}
	for _, d := range []float64{0, 5, 12.5, 33, 50, 99, 100} {
		r := Receipt{Format: FormatItemised, DiscountPct: d, Items: items}
		gross := SubtotalCents(r)
		net := TotalCents(r)
		want := gross * (1 - d/100)
		if math.Abs(net-want) > 1.0 {
			t.Errorf("discount %v: total = %v, want %v", d, net, want)
		}
	}
}

func TestComputeTotalsTotalOnly(t *testing.T) {
	r := Receipt{
		Format:      FormatTotalOnly,
		ManualTotal: Money{Cents: 4321},
		DiscountPct: 50, // ignored in total-only mode
	}
	got := ComputeTotals(r)
	if got.Total.Cents != 4321 {
		t.Errorf("Total = %d, want 4321", got.Total.Cents)
	}
	if got.Subtotal.Cents != 4321 {
		t.Errorf("Subtotal = %d, want 4321", got.Subtotal.Cents)
	}
}

func TestComputeTotalsExclusion(t *testing.T) {
	kept := item(1, 1000)
	exempt := item(1, 500)
	exempt.Excluded = true

	r := Receipt{
		Format:        FormatItemised,
		DiscountPct:   20,
		ExclusionMode: true,
		Items:         []LineItem{kept, exempt},
	}
	got := ComputeTotals(r)
	// 1000 * 0.8 + 500 = 1300
	if got.Total.Cents != 1300 {
		t.Errorf("Total = %d, want 1300", got.Total.Cents)
	}
	if got.Subtotal.Cents != 1500 {
		t.Errorf("Subtotal = %d, want 1500", got.Subtotal.Cents)
	}
}

// Calling the calculator twice on unchanged input must yield identical
// output, bit for bit.
func TestComputeTotalsIdempotent(t *testing.T) {
	r := Receipt{
		Format:      FormatItemised,
		DiscountPct: 33.33,
		Items:       []LineItem{item(3, 199), item(1, 1050), item(7, 89)},
	}
	first := ComputeTotals(r)
	second := ComputeTotals(r)
	if first != second {
		t.Errorf("ComputeTotals not idempotent: %+v != %+v", first, second)
	}
}
