package worker

import (
	"testing"
	"time"

	"scontrini/internal/core"
)

func testReceipt() core.Receipt {
	return core.Receipt{
		ID:     "r1",
		Store:  "Esselunga",
		PaidOn: core.Date{Time: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		Payer:  core.PayerSelf,
		Format: core.FormatItemised,
		Items: []core.LineItem{
			{Key: "a", Description: "Milk", Quantity: 2, UnitPrice: core.Money{Cents: 150}},
			{Key: "b", Description: "Bread", Quantity: 1, UnitPrice: core.Money{Cents: 300}, DebtorID: "d1"},
		},
		Strategy: core.SplitPerItem,
	}
}

func TestBuildExportRow(t *testing.T) {
	debtors := []core.Debtor{{ID: "d1", Name: "Anna"}}

	row := BuildExportRow(testReceipt(), debtors)

	if row.ReceiptID != "r1" {
		t.Errorf("ReceiptID = %q, want %q", row.ReceiptID, "r1")
	}
	if row.PaidOn != "2025-03-14" {
		t.Errorf("PaidOn = %q, want %q", row.PaidOn, "2025-03-14")
	}
	if row.TotalEuros != 6.00 {
		t.Errorf("TotalEuros = %v, want 6.00", row.TotalEuros)
	}
	if row.Debts != "Anna 3.00" {
		t.Errorf("Debts = %q, want %q", row.Debts, "Anna 3.00")
	}
}

func TestBuildExportRowShares(t *testing.T) {
	r := testReceipt()
	r.Strategy = core.SplitShares
	r.OwnerShares = 1
	r.Splits = []core.ReceiptSplit{{DebtorID: "d1", Shares: 1}}
	for i := range r.Items {
		r.Items[i].DebtorID = ""
	}

	row := BuildExportRow(r, []core.Debtor{{ID: "d1", Name: "Anna"}})

	if row.Debts != "owner 3.00; Anna 3.00" {
		t.Errorf("Debts = %q, want %q", row.Debts, "owner 3.00; Anna 3.00")
	}
}

func TestBuildExportRowUnknownDebtorFallsBackToID(t *testing.T) {
	row := BuildExportRow(testReceipt(), nil)

	if row.Debts != "d1 3.00" {
		t.Errorf("Debts = %q, want %q", row.Debts, "d1 3.00")
	}
}
