package core

// Debt splitting. The engine distributes the discounted receipt total (or
// per-item net values) across debtors under the configured strategy. It is
// a pure function of the receipt: no side effects, no errors — degenerate
// inputs (zero shares, no assignments) produce an empty summary instead.

// OwnerLabel is the display label used for the receipt owner's own amount.
const OwnerLabel = "owner"

// DebtEntry is one participant's owed amount, ready for display.
type DebtEntry struct {
	DebtorID string
	Label    string
	Amount   Money
}

// DebtSummary maps each participant to the amount they owe. It is derived
// state: never persisted, always recomputed from the receipt.
//
// Owner is nil when no owner amount is computed — under the per-item
// strategy unassigned items are implicitly the owner's own burden and no
// owner amount is reported, and a shares split with zero total shares
// computes nothing at all.
type DebtSummary struct {
	Owner   *Money
	Entries []DebtEntry
}

// Empty reports whether the summary carries no computed amounts.
func (s DebtSummary) Empty() bool {
	return s.Owner == nil && len(s.Entries) == 0
}

// ComputeDebtSummary runs the split allocation for a receipt. The names map
// resolves debtor IDs to display labels; unknown IDs fall back to the raw ID.
//
// Entries keep discovery order (split order for shares, item order for
// per-item), not a sorted order.
//
// Rounding note: share amounts are kept at full precision internally and
// rounded per participant only here, at the output boundary. The rounded
// amounts may therefore miss the rounded total by a cent for ratios like
// thirds; leftover cents are deliberately not redistributed.
func ComputeDebtSummary(r Receipt, names map[string]string) DebtSummary {
	label := func(debtorID string) string {
		if name, ok := names[debtorID]; ok && name != "" {
			return name
		}
		return debtorID
	}

	total := TotalCents(r)

	switch r.Strategy {
	case SplitShares:
		totalShares := r.OwnerShares
		for _, sp := range r.Splits {
			totalShares += sp.Shares
		}
		if totalShares == 0 {
			// No split computed rather than a division by zero.
			return DebtSummary{}
		}
		owner := MoneyFromFloat(total * float64(r.OwnerShares) / float64(totalShares))
		entries := make([]DebtEntry, 0, len(r.Splits))
		for _, sp := range r.Splits {
			entries = append(entries, DebtEntry{
				DebtorID: sp.DebtorID,
				Label:    label(sp.DebtorID),
				Amount:   MoneyFromFloat(total * float64(sp.Shares) / float64(totalShares)),
			})
		}
		return DebtSummary{Owner: &owner, Entries: entries}

	case SplitPerItem:
		if r.Format != FormatItemised {
			return DebtSummary{}
		}
		// Accumulate net values per debtor, grouped by debtor identity in
		// discovery order. Unassigned items contribute to no bucket.
		buckets := make(map[string]float64)
		var order []string
		for _, it := range r.Items {
			if it.DebtorID == "" {
				continue
			}
			if _, seen := buckets[it.DebtorID]; !seen {
				order = append(order, it.DebtorID)
			}
			buckets[it.DebtorID] += it.NetCents(r.DiscountPct, r.ExclusionMode)
		}
		entries := make([]DebtEntry, 0, len(order))
		for _, id := range order {
			entries = append(entries, DebtEntry{
				DebtorID: id,
				Label:    label(id),
				Amount:   MoneyFromFloat(buckets[id]),
			})
		}
		return DebtSummary{Entries: entries}

	default:
		// No split: the owner owes the full total.
		owner := MoneyFromFloat(total)
		return DebtSummary{Owner: &owner}
	}
}
