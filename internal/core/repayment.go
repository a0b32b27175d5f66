package core

// Repayment records that a debtor has paid back their portion of a
// receipt. The presence of any repayment row for a receipt freezes that
// receipt's splitting configuration; the editor never mutates repayments
// itself, it only observes them.
type Repayment struct {
	ID        string
	ReceiptID string
	DebtorID  string
	Amount    Money
	RepaidOn  Date
}
