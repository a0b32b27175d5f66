package core

import (
	"errors"
	"testing"
)

func validItemised() Receipt {
	return Receipt{
		Store:    "Esselunga",
		PaidOn:   NewDate(2025, 3, 14),
		Payer:    PayerSelf,
		Format:   FormatItemised,
		Items:    []LineItem{{Key: "k1", Quantity: 1, UnitPrice: Money{Cents: 100}}},
		Strategy: SplitNone,
	}
}

func TestReceiptValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Receipt)
		wantErr error
	}{
		{"valid", func(r *Receipt) {}, nil},
		{"empty store", func(r *Receipt) { r.Store = "  " }, ErrEmptyStore},
		{"zero date", func(r *Receipt) { r.PaidOn = Date{} }, ErrInvalidDate},
		{"empty payer", func(r *Receipt) { r.Payer = "" }, ErrEmptyPayer},
		{"no items", func(r *Receipt) { r.Items = nil }, ErrNoItems},
		{"discount over 100", func(r *Receipt) { r.DiscountPct = 101 }, ErrInvalidDiscount},
		{"negative discount", func(r *Receipt) { r.DiscountPct = -1 }, ErrInvalidDiscount},
		{"zero quantity on submit", func(r *Receipt) { r.Items[0].Quantity = 0 }, ErrZeroQuantity},
		{"bad format", func(r *Receipt) { r.Format = "csv" }, ErrInvalidFormat},
		{"bad strategy", func(r *Receipt) { r.Strategy = "percentages" }, ErrInvalidStrategy},
		{
			"zero shares in split",
			func(r *Receipt) {
				r.Strategy = SplitShares
				r.Splits = []ReceiptSplit{{DebtorID: "d1", Shares: 0}}
			},
			ErrNegativeShares,
		},
		{
			"debtor in both split and item",
			func(r *Receipt) {
				r.Strategy = SplitShares
				r.Splits = []ReceiptSplit{{DebtorID: "d1", Shares: 1}}
				r.Items[0].DebtorID = "d1"
			},
			ErrDoubleAssignment,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := validItemised()
			c.mutate(&r)
			err := r.Validate()
			if c.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want %v", c.wantErr)
			}
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() returned %T, want ValidationErrors", err)
			}
			found := false
			for _, fe := range errs {
				if errors.Is(fe, c.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, missing %v", errs, c.wantErr)
			}
		})
	}
}

func TestReceiptValidateTotalOnly(t *testing.T) {
	r := Receipt{
		Store:       "Bar Roma",
		PaidOn:      NewDate(2025, 1, 2),
		Payer:       PayerSelf,
		Format:      FormatTotalOnly,
		ManualTotal: Money{Cents: 0},
		Strategy:    SplitNone,
	}
	err := r.Validate()
	if err == nil {
		t.Fatal("expected validation failure for zero manual total")
	}
	var errs ValidationErrors
	if !errors.As(err, &errs) || !errors.Is(errs[0], ErrZeroManualTotal) {
		t.Errorf("got %v, want %v", err, ErrZeroManualTotal)
	}

	r.ManualTotal = Money{Cents: 1500}
	if err := r.Validate(); err != nil {
		t.Errorf("valid total-only receipt rejected: %v", err)
	}
}

func TestReceiptCloneIsDeep(t *testing.T) {
	r := validItemised()
	r.Splits = []ReceiptSplit{{DebtorID: "d1", Shares: 2}}
	clone := r.Clone()

	clone.Items[0].Quantity = 99
	clone.Splits[0].Shares = 99

	if r.Items[0].Quantity == 99 || r.Splits[0].Shares == 99 {
		t.Error("Clone shares backing arrays with the original")
	}
	if !r.Equal(r.Clone()) {
		t.Error("fresh clone should compare equal")
	}
	if r.Equal(clone) {
		t.Error("mutated clone should not compare equal")
	}
}
