package session

// Draft reconciliation: detects unsaved split information that a
// configuration change would destroy, and tracks whether the working set
// has diverged from its persisted baseline.

// HasPendingSplitData reports whether the working set carries split
// configuration that a destructive change would discard: share entries,
// an owner share count, or per-item debtor assignments.
func (ws *WorkingSet) HasPendingSplitData() bool {
	if len(ws.receipt.Splits) > 0 || ws.receipt.OwnerShares > 0 {
		return true
	}
	for _, it := range ws.receipt.Items {
		if it.DebtorID != "" {
			return true
		}
	}
	return false
}

// Dirty reports whether the current state differs from the last snapshot
// loaded from (or saved to) storage. It drives save-button enablement and
// is recomputed on every relevant field change by simply being a fresh
// comparison each call.
func (ws *WorkingSet) Dirty() bool {
	return !ws.receipt.Equal(ws.baseline)
}

// ResetBaseline marks the current state as persisted, typically right
// after a successful save.
func (ws *WorkingSet) ResetBaseline() {
	ws.baseline = ws.receipt.Clone()
}
