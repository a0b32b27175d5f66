package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"scontrini/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a receipt or repayment does not exist.
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadReceipt returns a receipt with its line items and splits, in stored
// order, ready to seed a working set.
func (r *SQLiteRepository) LoadReceipt(ctx context.Context, id string) (core.Receipt, error) {
	row, err := r.queries.GetReceipt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt: %w", err)
	}

	itemRows, err := r.queries.GetLineItems(ctx, id)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get line items: %w", err)
	}
	splitRows, err := r.queries.GetSplits(ctx, id)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get splits: %w", err)
	}

	receipt, err := receiptFromRow(row)
	if err != nil {
		return core.Receipt{}, err
	}
	for _, ir := range itemRows {
		receipt.Items = append(receipt.Items, core.LineItem{
			Key:         ir.ID,
			Description: ir.Description,
			Quantity:    ir.Quantity,
			UnitPrice:   core.Money{Cents: ir.UnitPriceCents},
			DebtorID:    ir.DebtorID.String,
			Excluded:    ir.Excluded,
		})
	}
	for _, sr := range splitRows {
		receipt.Splits = append(receipt.Splits, core.ReceiptSplit{
			DebtorID: sr.DebtorID,
			Shares:   int(sr.Shares),
		})
	}
	return receipt, nil
}

// SaveReceipt persists receipt fields and replaces the line item and split
// collections in a single transaction. Failure leaves the stored state
// unchanged; the caller keeps its working set and may retry.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, receipt core.Receipt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	err = q.UpsertReceipt(ctx, UpsertReceiptParams{
		ID:               receipt.ID,
		Store:            receipt.Store,
		PaidOn:           receipt.PaidOn.Format(dateLayout),
		Payer:            receipt.Payer,
		FormatMode:       string(receipt.Format),
		DiscountPct:      receipt.DiscountPct,
		ExclusionMode:    receipt.ExclusionMode,
		ManualTotalCents: receipt.ManualTotal.Cents,
		SplitStrategy:    string(receipt.Strategy),
		OwnerShares:      int64(receipt.OwnerShares),
	})
	if err != nil {
		return fmt.Errorf("upsert receipt: %w", err)
	}

	if err := q.DeleteLineItems(ctx, receipt.ID); err != nil {
		return fmt.Errorf("clear line items: %w", err)
	}
	for i, it := range receipt.Items {
		debtor := sql.NullString{String: it.DebtorID, Valid: it.DebtorID != ""}
		err := q.InsertLineItem(ctx, InsertLineItemParams{
			ID:             it.Key,
			ReceiptID:      receipt.ID,
			Position:       int64(i),
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPrice.Cents,
			DebtorID:       debtor,
			Excluded:       it.Excluded,
		})
		if err != nil {
			return fmt.Errorf("insert line item %d: %w", i, err)
		}
	}

	if err := q.DeleteSplits(ctx, receipt.ID); err != nil {
		return fmt.Errorf("clear splits: %w", err)
	}
	for i, sp := range receipt.Splits {
		err := q.InsertSplit(ctx, SplitRow{
			ReceiptID: receipt.ID,
			DebtorID:  sp.DebtorID,
			Shares:    int64(sp.Shares),
			Position:  int64(i),
		})
		if err != nil {
			return fmt.Errorf("insert split %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved",
		"id", receipt.ID,
		"store", receipt.Store,
		"items", len(receipt.Items),
		"splits", len(receipt.Splits),
		"strategy", receipt.Strategy)

	return nil
}

// HasRepayments reports whether any repayment row references the receipt.
// This single query drives the settlement guard's initial state.
func (r *SQLiteRepository) HasRepayments(ctx context.Context, receiptID string) (bool, error) {
	n, err := r.queries.CountRepayments(ctx, receiptID)
	if err != nil {
		return false, fmt.Errorf("count repayments: %w", err)
	}
	return n > 0, nil
}

// RecordRepayment inserts a repayment row. The assigned ID is returned.
func (r *SQLiteRepository) RecordRepayment(ctx context.Context, rep core.Repayment) (string, error) {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	err := r.queries.InsertRepayment(ctx, RepaymentRow{
		ID:          rep.ID,
		ReceiptID:   rep.ReceiptID,
		DebtorID:    rep.DebtorID,
		AmountCents: rep.Amount.Cents,
		RepaidOn:    rep.RepaidOn.Format(dateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("insert repayment: %w", err)
	}

	slog.InfoContext(ctx, "Repayment recorded",
		"id", rep.ID,
		"receipt_id", rep.ReceiptID,
		"debtor_id", rep.DebtorID,
		"amount_cents", rep.Amount.Cents)

	return rep.ID, nil
}

// DeleteRepayment removes a repayment; if it was the last one for its
// receipt the settlement guard reopens on the next load.
func (r *SQLiteRepository) DeleteRepayment(ctx context.Context, id string) error {
	n, err := r.queries.DeleteRepayment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete repayment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repayment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListRepayments returns all repayments for a receipt.
func (r *SQLiteRepository) ListRepayments(ctx context.Context, receiptID string) ([]core.Repayment, error) {
	rows, err := r.queries.GetRepayments(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("get repayments: %w", err)
	}
	out := make([]core.Repayment, len(rows))
	for i, row := range rows {
		repaidOn, _ := time.Parse(dateLayout, row.RepaidOn)
		out[i] = core.Repayment{
			ID:        row.ID,
			ReceiptID: row.ReceiptID,
			DebtorID:  row.DebtorID,
			Amount:    core.Money{Cents: row.AmountCents},
			RepaidOn:  core.Date{Time: repaidOn},
		}
	}
	return out, nil
}

// ListDebtors returns all known debtors ordered by name.
func (r *SQLiteRepository) ListDebtors(ctx context.Context) ([]core.Debtor, error) {
	rows, err := r.queries.ListDebtors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	out := make([]core.Debtor, len(rows))
	for i, row := range rows {
		out[i] = core.Debtor{ID: row.ID, Name: row.Name}
	}
	return out, nil
}

// CreateDebtor inserts a new debtor and returns it with its assigned ID.
func (r *SQLiteRepository) CreateDebtor(ctx context.Context, name string) (core.Debtor, error) {
	d := core.Debtor{ID: uuid.NewString(), Name: name}
	if err := r.queries.InsertDebtor(ctx, DebtorRow{ID: d.ID, Name: d.Name}); err != nil {
		return core.Debtor{}, fmt.Errorf("insert debtor: %w", err)
	}
	return d, nil
}

// PendingSyncReceipt is the minimal data the export worker needs per queue
// sweep.
type PendingSyncReceipt struct {
	ID        string
	Version   int64
	UpdatedAt time.Time
}

// GetPendingSyncReceipts returns receipts not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingSyncReceipts(ctx context.Context, limit int) ([]PendingSyncReceipt, error) {
	rows, err := r.queries.GetPendingSyncReceipts(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync receipts: %w", err)
	}
	out := make([]PendingSyncReceipt, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncReceipt{ID: row.ID, Version: row.Version, UpdatedAt: row.UpdatedAt}
	}
	return out, nil
}

// MarkSynced marks a receipt as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkReceiptSynced(ctx, id); err != nil {
		return fmt.Errorf("mark receipt synced: %w", err)
	}
	slog.InfoContext(ctx, "Receipt marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a receipt as having export errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkReceiptSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark receipt sync error: %w", err)
	}
	slog.WarnContext(ctx, "Receipt marked with sync error", "id", id)
	return nil
}

func receiptFromRow(row ReceiptRow) (core.Receipt, error) {
	paidOn, err := time.Parse(dateLayout, row.PaidOn)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("parse paid_on %q: %w", row.PaidOn, err)
	}
	return core.Receipt{
		ID:            row.ID,
		Store:         row.Store,
		PaidOn:        core.Date{Time: paidOn},
		Payer:         row.Payer,
		Format:        core.FormatMode(row.FormatMode),
		DiscountPct:   row.DiscountPct,
		ExclusionMode: row.ExclusionMode,
		ManualTotal:   core.Money{Cents: row.ManualTotalCents},
		Strategy:      core.SplitStrategy(row.SplitStrategy),
		OwnerShares:   int(row.OwnerShares),
	}, nil
}
