// Package session implements the receipt editing session: a single-owner,
// in-memory working set with mutation entry points, settlement locking and
// confirm-before-discard reconciliation of unsaved split data.
//
// Every setter is synchronous and cheap; callers re-read Totals and Summary
// after each change and trigger their own redisplay. There is no hidden
// dependency tracking and no concurrent access: the working set belongs to
// exactly one editing session.
package session

import (
	"github.com/google/uuid"

	"scontrini/internal/core"
)

// WorkingSet is the mutable state of a receipt being created or edited.
// It is discarded on save or cancel; only the persisted rows outlive it.
type WorkingSet struct {
	receipt  core.Receipt
	names    map[string]string // debtor ID -> display name
	guard    GuardState
	baseline core.Receipt // last-loaded-from-storage snapshot
}

// Change is the outcome of a mutation request: either it applied
// immediately, or it would discard unsaved split data and needs the caller
// to confirm before the destructive part runs. Mutations silently ignored
// by the settlement guard report neither.
type Change struct {
	Applied           bool
	NeedsConfirmation bool
	apply             func()
}

// Confirm runs the deferred destructive mutation. It reports whether the
// change is now applied; confirming an already-applied or ignored change
// is a no-op.
func (c *Change) Confirm() bool {
	if c.NeedsConfirmation && c.apply != nil {
		c.apply()
		c.apply = nil
		c.NeedsConfirmation = false
		c.Applied = true
	}
	return c.Applied
}

func applied() Change      { return Change{Applied: true} }
func ignored() Change      { return Change{} }
func confirm(fn func()) Change {
	return Change{NeedsConfirmation: true, apply: fn}
}

// NewDraft opens a working set for a new receipt with sensible defaults.
func NewDraft(debtors []core.Debtor) *WorkingSet {
	r := core.Receipt{
		Payer:    core.PayerSelf,
		Format:   core.FormatItemised,
		Strategy: core.SplitNone,
	}
	return Open(r, debtors, false)
}

// Open seeds a working set from a persisted receipt. The settled flag comes
// from the settlement query (any repayment row referencing this receipt's
// debtors) and decides the guard's initial state.
func Open(r core.Receipt, debtors []core.Debtor, settled bool) *WorkingSet {
	names := make(map[string]string, len(debtors))
	for _, d := range debtors {
		names[d.ID] = d.Name
	}
	guard := GuardOpen
	if settled {
		guard = GuardLocked
	}
	return &WorkingSet{
		receipt:  r.Clone(),
		names:    names,
		guard:    guard,
		baseline: r.Clone(),
	}
}

// Receipt returns a copy of the current working state.
func (ws *WorkingSet) Receipt() core.Receipt {
	return ws.receipt.Clone()
}

// Totals recomputes subtotal and total from the current state.
func (ws *WorkingSet) Totals() core.Totals {
	return core.ComputeTotals(ws.receipt)
}

// Summary recomputes the debt summary from the current state.
func (ws *WorkingSet) Summary() core.DebtSummary {
	return core.ComputeDebtSummary(ws.receipt, ws.names)
}

// Validate runs the submit-time checks on the current state.
func (ws *WorkingSet) Validate() error {
	return ws.receipt.Validate()
}

// KnowDebtor registers a debtor's display name for summary labels.
func (ws *WorkingSet) KnowDebtor(d core.Debtor) {
	ws.names[d.ID] = d.Name
}

// SetStore changes the store name. Not part of the locked field set.
func (ws *WorkingSet) SetStore(store string) Change {
	ws.receipt.Store = store
	return applied()
}

// SetPaidOn changes the receipt date. Not part of the locked field set.
func (ws *WorkingSet) SetPaidOn(d core.Date) Change {
	ws.receipt.PaidOn = d
	return applied()
}

// SetPayer changes who paid the receipt. Changing the payer away from the
// owner discards the split configuration, so a non-empty pending split
// requires confirmation first.
func (ws *WorkingSet) SetPayer(payer string) Change {
	if ws.Locked() {
		return ignored()
	}
	if payer == ws.receipt.Payer {
		return applied()
	}
	if ws.HasPendingSplitData() {
		return confirm(func() {
			ws.receipt.Payer = payer
			ws.resetSplitData()
		})
	}
	ws.receipt.Payer = payer
	return applied()
}

// SetDiscountPct changes the discount percentage. The raw value is kept as
// entered; range checks happen at submit time.
func (ws *WorkingSet) SetDiscountPct(pct float64) Change {
	if ws.Locked() {
		return ignored()
	}
	ws.receipt.DiscountPct = pct
	return applied()
}

// SetExclusionMode toggles whether per-item exclusion flags apply.
func (ws *WorkingSet) SetExclusionMode(on bool) Change {
	if ws.Locked() {
		return ignored()
	}
	ws.receipt.ExclusionMode = on
	return applied()
}

// SetItemExcluded flags a line item as exempt from the discount.
func (ws *WorkingSet) SetItemExcluded(key string, excluded bool) Change {
	if ws.Locked() {
		return ignored()
	}
	it := ws.item(key)
	if it == nil {
		return ignored()
	}
	it.Excluded = excluded
	return applied()
}

// AddItem appends a new line item and returns its session key.
func (ws *WorkingSet) AddItem(description string) (string, Change) {
	if ws.Locked() {
		return "", ignored()
	}
	key := uuid.NewString()
	ws.receipt.Items = append(ws.receipt.Items, core.LineItem{
		Key:         key,
		Description: description,
	})
	return key, applied()
}

// RemoveItem deletes a line item by key.
func (ws *WorkingSet) RemoveItem(key string) Change {
	if ws.Locked() {
		return ignored()
	}
	for i, it := range ws.receipt.Items {
		if it.Key == key {
			ws.receipt.Items = append(ws.receipt.Items[:i], ws.receipt.Items[i+1:]...)
			return applied()
		}
	}
	return ignored()
}

// SetItemDescription renames a line item. Not part of the locked field set.
func (ws *WorkingSet) SetItemDescription(key, description string) Change {
	it := ws.item(key)
	if it == nil {
		return ignored()
	}
	it.Description = description
	return applied()
}

// SetItemQuantity changes a line item quantity. Negative entries are
// clamped to 0, never rejected: data entry stays forgiving.
func (ws *WorkingSet) SetItemQuantity(key string, quantity float64) Change {
	if ws.Locked() {
		return ignored()
	}
	it := ws.item(key)
	if it == nil {
		return ignored()
	}
	if quantity < 0 {
		quantity = 0
	}
	it.Quantity = quantity
	return applied()
}

// SetItemUnitPrice changes a line item unit price, clamping negatives to 0.
func (ws *WorkingSet) SetItemUnitPrice(key string, cents int64) Change {
	if ws.Locked() {
		return ignored()
	}
	it := ws.item(key)
	if it == nil {
		return ignored()
	}
	if cents < 0 {
		cents = 0
	}
	it.UnitPrice = core.Money{Cents: cents}
	return applied()
}

// AssignItemDebtor points a line item at a debtor (per-item strategy).
// An empty debtor ID clears the assignment.
func (ws *WorkingSet) AssignItemDebtor(key, debtorID string) Change {
	if ws.Locked() {
		return ignored()
	}
	it := ws.item(key)
	if it == nil {
		return ignored()
	}
	it.DebtorID = debtorID
	return applied()
}

// SetOwnerShares sets the owner's own share count (shares strategy).
func (ws *WorkingSet) SetOwnerShares(shares int) Change {
	if ws.Locked() {
		return ignored()
	}
	if shares < 0 {
		shares = 0
	}
	ws.receipt.OwnerShares = shares
	return applied()
}

// SetSplitShares upserts a debtor's share count. A count of zero or less
// removes the split entry.
func (ws *WorkingSet) SetSplitShares(debtorID string, shares int) Change {
	if ws.Locked() {
		return ignored()
	}
	if shares <= 0 {
		return ws.removeSplit(debtorID)
	}
	for i := range ws.receipt.Splits {
		if ws.receipt.Splits[i].DebtorID == debtorID {
			ws.receipt.Splits[i].Shares = shares
			return applied()
		}
	}
	ws.receipt.Splits = append(ws.receipt.Splits, core.ReceiptSplit{
		DebtorID: debtorID,
		Shares:   shares,
	})
	return applied()
}

// RemoveSplit drops a debtor from the share table.
func (ws *WorkingSet) RemoveSplit(debtorID string) Change {
	if ws.Locked() {
		return ignored()
	}
	return ws.removeSplit(debtorID)
}

func (ws *WorkingSet) removeSplit(debtorID string) Change {
	for i, sp := range ws.receipt.Splits {
		if sp.DebtorID == debtorID {
			ws.receipt.Splits = append(ws.receipt.Splits[:i], ws.receipt.Splits[i+1:]...)
			return applied()
		}
	}
	return ignored()
}

// SetStrategy switches the split strategy. Switching with pending split
// data resets that data, so it needs confirmation first.
func (ws *WorkingSet) SetStrategy(s core.SplitStrategy) Change {
	if ws.Locked() {
		return ignored()
	}
	if s == ws.receipt.Strategy {
		return applied()
	}
	if ws.HasPendingSplitData() {
		return confirm(func() {
			ws.receipt.Strategy = s
			ws.resetSplitData()
		})
	}
	ws.receipt.Strategy = s
	return applied()
}

// SetFormatMode switches between itemised and total-only. Exactly one
// representation holds data at a time, so switching clears the other's.
// Leaving itemised mode with line items or exclusion flags present
// destroys them and needs confirmation first.
func (ws *WorkingSet) SetFormatMode(m core.FormatMode) Change {
	if ws.Locked() {
		return ignored()
	}
	if m == ws.receipt.Format {
		return applied()
	}
	switch m {
	case core.FormatTotalOnly:
		if len(ws.receipt.Items) > 0 || ws.receipt.ExclusionMode {
			return confirm(func() { ws.switchToTotalOnly() })
		}
		ws.switchToTotalOnly()
		return applied()
	case core.FormatItemised:
		ws.receipt.Format = core.FormatItemised
		ws.receipt.ManualTotal = core.Money{}
		return applied()
	default:
		return ignored()
	}
}

func (ws *WorkingSet) switchToTotalOnly() {
	ws.receipt.Format = core.FormatTotalOnly
	ws.receipt.Items = nil
	ws.receipt.DiscountPct = 0
	ws.receipt.ExclusionMode = false
}

// SetManualTotal sets the total-only amount, clamping negatives to 0.
func (ws *WorkingSet) SetManualTotal(cents int64) Change {
	if ws.Locked() {
		return ignored()
	}
	if cents < 0 {
		cents = 0
	}
	ws.receipt.ManualTotal = core.Money{Cents: cents}
	return applied()
}

func (ws *WorkingSet) item(key string) *core.LineItem {
	for i := range ws.receipt.Items {
		if ws.receipt.Items[i].Key == key {
			return &ws.receipt.Items[i]
		}
	}
	return nil
}

func (ws *WorkingSet) resetSplitData() {
	ws.receipt.OwnerShares = 0
	ws.receipt.Splits = nil
	for i := range ws.receipt.Items {
		ws.receipt.Items[i].DebtorID = ""
	}
}
