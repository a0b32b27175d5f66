// Package worker contains the background export worker that mirrors
// locally saved receipts to the configured spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scontrini/internal/amqp"
	"scontrini/internal/core"
	"scontrini/internal/sheets"
	"scontrini/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	exporter  sheets.ReceiptExporter
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, exporter sheets.ReceiptExporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one sync message from the queue.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ReceiptSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	return w.exportReceipt(ctx, msg.ID)
}

// ProcessPendingReceipts exports one batch of receipts still marked
// pending. Used as a periodic safety net for messages lost while the
// worker or broker was down.
func (w *ExportWorker) ProcessPendingReceipts(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncReceipts(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending receipts: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending receipts", "count", len(pending))

	for _, p := range pending {
		if err := w.exportReceipt(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending receipt",
				"id", p.ID, "error", err)
			// Continue with the rest of the batch
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup,
// with a larger batch than the periodic sweep.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncReceipts(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending receipts for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending receipts found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending receipts on startup", "count", len(pending))

	for _, p := range pending {
		if err := w.exportReceipt(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export receipt during startup check",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// exportReceipt loads a receipt, recomputes its debt summary and appends
// one row to the export target, then records the outcome on the row.
func (w *ExportWorker) exportReceipt(ctx context.Context, id string) error {
	receipt, err := w.storage.LoadReceipt(ctx, id)
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", id, err)
	}

	debtors, err := w.storage.ListDebtors(ctx)
	if err != nil {
		return fmt.Errorf("list debtors: %w", err)
	}

	row := BuildExportRow(receipt, debtors)

	ref, err := w.exporter.AppendReceipt(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark receipt sync error",
				"id", id, "error", markErr)
		}
		return fmt.Errorf("append receipt to export target: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark receipt synced: %w", err)
	}

	slog.InfoContext(ctx, "Receipt exported",
		"id", id,
		"row_ref", ref)

	return nil
}

// BuildExportRow flattens a receipt and its recomputed debt summary into
// one spreadsheet row.
func BuildExportRow(receipt core.Receipt, debtors []core.Debtor) sheets.ExportRow {
	names := make(map[string]string, len(debtors))
	for _, d := range debtors {
		names[d.ID] = d.Name
	}

	totals := core.ComputeTotals(receipt)
	summary := core.ComputeDebtSummary(receipt, names)

	return sheets.ExportRow{
		ReceiptID:  receipt.ID,
		PaidOn:     receipt.PaidOn.Format("2006-01-02"),
		Store:      receipt.Store,
		Payer:      receipt.Payer,
		TotalEuros: totals.Total.Euros(),
		Debts:      formatDebts(summary),
	}
}

func formatDebts(summary core.DebtSummary) string {
	var parts []string
	if summary.Owner != nil {
		parts = append(parts, fmt.Sprintf("%s %s", core.OwnerLabel, summary.Owner))
	}
	for _, e := range summary.Entries {
		parts = append(parts, fmt.Sprintf("%s %s", e.Label, e.Amount))
	}
	return strings.Join(parts, "; ")
}
