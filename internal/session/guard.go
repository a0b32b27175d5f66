package session

// GuardState tracks whether a receipt's splitting configuration is frozen.
//
// The guard does not distinguish partial from full settlement: any
// repayment row referencing one of the receipt's debtors locks the whole
// configuration. While locked, mutations to the payer, split strategy,
// discount percentage, exclusion set, line item quantities/prices and
// format mode are silently ignored — the control is inert, not erroring —
// because the guard's job is to prevent entering an invalid state, not to
// recover from one.
type GuardState int

const (
	// GuardOpen: no repayment exists; every field is mutable.
	GuardOpen GuardState = iota
	// GuardLocked: at least one repayment references this receipt.
	GuardLocked
)

func (g GuardState) String() string {
	if g == GuardLocked {
		return "locked"
	}
	return "open"
}

// Locked reports whether the settlement guard is rejecting mutations.
func (ws *WorkingSet) Locked() bool {
	return ws.guard == GuardLocked
}

// GuardState returns the current guard state.
func (ws *WorkingSet) GuardState() GuardState {
	return ws.guard
}

// MarkSettled transitions the guard to locked. The transition fires the
// instant an external repayment is recorded and is not reversible from the
// editor; only deleting the repayment externally reverts it, after which
// the session is reopened via Open with settled=false.
func (ws *WorkingSet) MarkSettled() {
	ws.guard = GuardLocked
}
