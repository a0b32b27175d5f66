package sheets

import (
	"context"
)

// ExportRow is one exported receipt: the persisted figures plus the
// recomputed debt summary, flattened for a spreadsheet.
type ExportRow struct {
	ReceiptID  string
	PaidOn     string // YYYY-MM-DD
	Store      string
	Payer      string
	TotalEuros float64
	// Debts is the per-participant breakdown, e.g. "Anna 12.50; Luca 6.25".
	Debts string
}

// Ports for outbound adapters.
type (
	// ReceiptExporter appends one receipt row to the export target.
	ReceiptExporter interface {
		AppendReceipt(ctx context.Context, row ExportRow) (rowRef string, err error)
	}
)
