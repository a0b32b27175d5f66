package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same query layer
// serves standalone calls and transactional saves.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table layout; mapping to core types happens in the
// repository.

type ReceiptRow struct {
	ID               string
	Store            string
	PaidOn           string
	Payer            string
	FormatMode       string
	DiscountPct      float64
	ExclusionMode    bool
	ManualTotalCents int64
	SplitStrategy    string
	OwnerShares      int64
	SyncStatus       string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type LineItemRow struct {
	ID             string
	ReceiptID      string
	Position       int64
	Description    string
	Quantity       float64
	UnitPriceCents int64
	DebtorID       sql.NullString
	Excluded       bool
}

type SplitRow struct {
	ReceiptID string
	DebtorID  string
	Shares    int64
	Position  int64
}

type RepaymentRow struct {
	ID          string
	ReceiptID   string
	DebtorID    string
	AmountCents int64
	RepaidOn    string
}

type DebtorRow struct {
	ID   string
	Name string
}

const getReceipt = `
SELECT id, store, paid_on, payer, format_mode, discount_pct, exclusion_mode,
       manual_total_cents, split_strategy, owner_shares, sync_status, version,
       created_at, updated_at
FROM receipts WHERE id = ?`

func (q *Queries) GetReceipt(ctx context.Context, id string) (ReceiptRow, error) {
	var r ReceiptRow
	err := q.db.QueryRowContext(ctx, getReceipt, id).Scan(
		&r.ID, &r.Store, &r.PaidOn, &r.Payer, &r.FormatMode, &r.DiscountPct,
		&r.ExclusionMode, &r.ManualTotalCents, &r.SplitStrategy, &r.OwnerShares,
		&r.SyncStatus, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const upsertReceipt = `
INSERT INTO receipts (id, store, paid_on, payer, format_mode, discount_pct,
                      exclusion_mode, manual_total_cents, split_strategy,
                      owner_shares, sync_status, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', 1)
ON CONFLICT(id) DO UPDATE SET
    store = excluded.store,
    paid_on = excluded.paid_on,
    payer = excluded.payer,
    format_mode = excluded.format_mode,
    discount_pct = excluded.discount_pct,
    exclusion_mode = excluded.exclusion_mode,
    manual_total_cents = excluded.manual_total_cents,
    split_strategy = excluded.split_strategy,
    owner_shares = excluded.owner_shares,
    sync_status = 'pending',
    version = receipts.version + 1,
    updated_at = CURRENT_TIMESTAMP`

type UpsertReceiptParams struct {
	ID               string
	Store            string
	PaidOn           string
	Payer            string
	FormatMode       string
	DiscountPct      float64
	ExclusionMode    bool
	ManualTotalCents int64
	SplitStrategy    string
	OwnerShares      int64
}

func (q *Queries) UpsertReceipt(ctx context.Context, p UpsertReceiptParams) error {
	_, err := q.db.ExecContext(ctx, upsertReceipt,
		p.ID, p.Store, p.PaidOn, p.Payer, p.FormatMode, p.DiscountPct,
		p.ExclusionMode, p.ManualTotalCents, p.SplitStrategy, p.OwnerShares,
	)
	return err
}

const deleteLineItems = `DELETE FROM line_items WHERE receipt_id = ?`

func (q *Queries) DeleteLineItems(ctx context.Context, receiptID string) error {
	_, err := q.db.ExecContext(ctx, deleteLineItems, receiptID)
	return err
}

const insertLineItem = `
INSERT INTO line_items (id, receipt_id, position, description, quantity,
                        unit_price_cents, debtor_id, excluded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertLineItemParams struct {
	ID             string
	ReceiptID      string
	Position       int64
	Description    string
	Quantity       float64
	UnitPriceCents int64
	DebtorID       sql.NullString
	Excluded       bool
}

func (q *Queries) InsertLineItem(ctx context.Context, p InsertLineItemParams) error {
	_, err := q.db.ExecContext(ctx, insertLineItem,
		p.ID, p.ReceiptID, p.Position, p.Description, p.Quantity,
		p.UnitPriceCents, p.DebtorID, p.Excluded,
	)
	return err
}

const getLineItems = `
SELECT id, receipt_id, position, description, quantity, unit_price_cents,
       debtor_id, excluded
FROM line_items WHERE receipt_id = ? ORDER BY position`

func (q *Queries) GetLineItems(ctx context.Context, receiptID string) ([]LineItemRow, error) {
	rows, err := q.db.QueryContext(ctx, getLineItems, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineItemRow
	for rows.Next() {
		var r LineItemRow
		if err := rows.Scan(&r.ID, &r.ReceiptID, &r.Position, &r.Description,
			&r.Quantity, &r.UnitPriceCents, &r.DebtorID, &r.Excluded); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const deleteSplits = `DELETE FROM receipt_splits WHERE receipt_id = ?`

func (q *Queries) DeleteSplits(ctx context.Context, receiptID string) error {
	_, err := q.db.ExecContext(ctx, deleteSplits, receiptID)
	return err
}

const insertSplit = `
INSERT INTO receipt_splits (receipt_id, debtor_id, shares, position)
VALUES (?, ?, ?, ?)`

func (q *Queries) InsertSplit(ctx context.Context, s SplitRow) error {
	_, err := q.db.ExecContext(ctx, insertSplit, s.ReceiptID, s.DebtorID, s.Shares, s.Position)
	return err
}

const getSplits = `
SELECT receipt_id, debtor_id, shares, position
FROM receipt_splits WHERE receipt_id = ? ORDER BY position`

func (q *Queries) GetSplits(ctx context.Context, receiptID string) ([]SplitRow, error) {
	rows, err := q.db.QueryContext(ctx, getSplits, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SplitRow
	for rows.Next() {
		var s SplitRow
		if err := rows.Scan(&s.ReceiptID, &s.DebtorID, &s.Shares, &s.Position); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const countRepayments = `SELECT COUNT(*) FROM repayments WHERE receipt_id = ?`

func (q *Queries) CountRepayments(ctx context.Context, receiptID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRepayments, receiptID).Scan(&n)
	return n, err
}

const insertRepayment = `
INSERT INTO repayments (id, receipt_id, debtor_id, amount_cents, repaid_on)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertRepayment(ctx context.Context, r RepaymentRow) error {
	_, err := q.db.ExecContext(ctx, insertRepayment,
		r.ID, r.ReceiptID, r.DebtorID, r.AmountCents, r.RepaidOn)
	return err
}

const deleteRepayment = `DELETE FROM repayments WHERE id = ?`

func (q *Queries) DeleteRepayment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRepayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRepayments = `
SELECT id, receipt_id, debtor_id, amount_cents, repaid_on
FROM repayments WHERE receipt_id = ? ORDER BY created_at`

func (q *Queries) GetRepayments(ctx context.Context, receiptID string) ([]RepaymentRow, error) {
	rows, err := q.db.QueryContext(ctx, getRepayments, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RepaymentRow
	for rows.Next() {
		var r RepaymentRow
		if err := rows.Scan(&r.ID, &r.ReceiptID, &r.DebtorID, &r.AmountCents, &r.RepaidOn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listDebtors = `SELECT id, name FROM debtors ORDER BY name`

func (q *Queries) ListDebtors(ctx context.Context) ([]DebtorRow, error) {
	rows, err := q.db.QueryContext(ctx, listDebtors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DebtorRow
	for rows.Next() {
		var d DebtorRow
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const insertDebtor = `INSERT INTO debtors (id, name) VALUES (?, ?)`

func (q *Queries) InsertDebtor(ctx context.Context, d DebtorRow) error {
	_, err := q.db.ExecContext(ctx, insertDebtor, d.ID, d.Name)
	return err
}

const getPendingSyncReceipts = `
SELECT id, store, paid_on, payer, format_mode, discount_pct, exclusion_mode,
       manual_total_cents, split_strategy, owner_shares, sync_status, version,
       created_at, updated_at
FROM receipts WHERE sync_status = 'pending' ORDER BY updated_at LIMIT ?`

func (q *Queries) GetPendingSyncReceipts(ctx context.Context, limit int64) ([]ReceiptRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncReceipts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReceiptRow
	for rows.Next() {
		var r ReceiptRow
		if err := rows.Scan(&r.ID, &r.Store, &r.PaidOn, &r.Payer, &r.FormatMode,
			&r.DiscountPct, &r.ExclusionMode, &r.ManualTotalCents, &r.SplitStrategy,
			&r.OwnerShares, &r.SyncStatus, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const markReceiptSynced = `UPDATE receipts SET sync_status = 'synced' WHERE id = ?`

func (q *Queries) MarkReceiptSynced(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markReceiptSynced, id)
	return err
}

const markReceiptSyncError = `UPDATE receipts SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkReceiptSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markReceiptSyncError, id)
	return err
}
