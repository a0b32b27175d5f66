package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// FormatItemised tracks individual line items; the discount percentage
	// and exclusion flags only apply in this mode.
	FormatItemised FormatMode = "itemised"
	// FormatTotalOnly records a single manual total with no line items.
	FormatTotalOnly FormatMode = "total_only"
)

const (
	SplitNone    SplitStrategy = "none"
	SplitShares  SplitStrategy = "shares"
	SplitPerItem SplitStrategy = "per_item"
)

// PayerSelf marks the receipt owner as the payer.
const PayerSelf = "self"

type (
	FormatMode    string
	SplitStrategy string

	Date struct {
		time.Time
	}

	// Debtor is a person, other than the receipt owner, who may owe part
	// of an expense.
	Debtor struct {
		ID   string
		Name string
	}

	// LineItem is one product entry on an itemised receipt.
	// Key is an opaque identity, stable within an editing session.
	LineItem struct {
		Key         string
		Description string
		Quantity    float64
		UnitPrice   Money
		DebtorID    string // set only under the per-item strategy
		Excluded    bool   // exempt from the discount while exclusion mode is on
	}

	// ReceiptSplit assigns a positive share count to a debtor under the
	// shares strategy. Total shares = owner shares + sum of split shares.
	ReceiptSplit struct {
		DebtorID string
		Shares   int
	}

	// Receipt is a recorded expense, itemised or total-only.
	Receipt struct {
		ID          string
		Store       string
		PaidOn      Date
		Payer       string // PayerSelf or a debtor ID
		Format      FormatMode
		DiscountPct float64 // 0-100, itemised mode only
		// ExclusionMode is the explicit toggle that makes the per-item
		// Excluded flags meaningful; the flags are ignored while it is off.
		ExclusionMode bool
		Items         []LineItem
		ManualTotal   Money // total-only mode
		Strategy      SplitStrategy
		OwnerShares   int
		Splits        []ReceiptSplit
	}
)

var (
	ErrEmptyStore       = errors.New("empty store")
	ErrEmptyPayer       = errors.New("empty payer")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNoItems          = errors.New("itemised receipt has no line items")
	ErrZeroManualTotal  = errors.New("manual total must be greater than zero")
	ErrZeroQuantity     = errors.New("line item quantity must be greater than zero")
	ErrInvalidFormat    = errors.New("invalid format mode")
	ErrInvalidStrategy  = errors.New("invalid split strategy")
	ErrNegativeShares   = errors.New("share count must be positive")
	ErrDoubleAssignment = errors.New("debtor referenced by both a split and a line item")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// FieldError is a validation failure tied to a specific input field,
// so the caller can surface it next to the offending control.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field failure found on submit.
// Save is blocked while it is non-empty; no partial persistence occurs.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Error()
	}
	return "validation failed:\n- " + strings.Join(msgs, "\n- ")
}

// Validate checks the receipt against the submit-time rules. Editing is
// forgiving (negative entries are clamped, not rejected); saving is not.
func (r Receipt) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(r.Store) == "" {
		errs = append(errs, FieldError{Field: "store", Err: ErrEmptyStore})
	}
	if err := r.PaidOn.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "paid_on", Err: err})
	}
	if strings.TrimSpace(r.Payer) == "" {
		errs = append(errs, FieldError{Field: "payer", Err: ErrEmptyPayer})
	}

	switch r.Format {
	case FormatItemised:
		if len(r.Items) == 0 {
			errs = append(errs, FieldError{Field: "items", Err: ErrNoItems})
		}
		if r.DiscountPct < 0 || r.DiscountPct > 100 {
			errs = append(errs, FieldError{Field: "discount_pct", Err: ErrInvalidDiscount})
		}
		for i, it := range r.Items {
			if it.Quantity <= 0 {
				errs = append(errs, FieldError{
					Field: fmt.Sprintf("items[%d].quantity", i),
					Err:   ErrZeroQuantity,
				})
			}
			if it.UnitPrice.Cents < 0 {
				errs = append(errs, FieldError{
					Field: fmt.Sprintf("items[%d].unit_price", i),
					Err:   ErrNegativeAmount,
				})
			}
		}
	case FormatTotalOnly:
		if r.ManualTotal.Cents <= 0 {
			errs = append(errs, FieldError{Field: "manual_total", Err: ErrZeroManualTotal})
		}
	default:
		errs = append(errs, FieldError{Field: "format", Err: ErrInvalidFormat})
	}

	switch r.Strategy {
	case SplitNone, SplitPerItem:
	case SplitShares:
		for i, sp := range r.Splits {
			if sp.Shares <= 0 {
				errs = append(errs, FieldError{
					Field: fmt.Sprintf("splits[%d].shares", i),
					Err:   ErrNegativeShares,
				})
			}
		}
		if r.OwnerShares < 0 {
			errs = append(errs, FieldError{Field: "owner_shares", Err: ErrNegativeShares})
		}
	default:
		errs = append(errs, FieldError{Field: "split_strategy", Err: ErrInvalidStrategy})
	}

	// A debtor may be referenced by splits or by line items, never both.
	split := make(map[string]bool, len(r.Splits))
	for _, sp := range r.Splits {
		split[sp.DebtorID] = true
	}
	for _, it := range r.Items {
		if it.DebtorID != "" && split[it.DebtorID] {
			errs = append(errs, FieldError{Field: "splits", Err: ErrDoubleAssignment})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Clone returns a deep copy of the receipt, used for baseline snapshots.
func (r Receipt) Clone() Receipt {
	out := r
	out.Items = append([]LineItem(nil), r.Items...)
	out.Splits = append([]ReceiptSplit(nil), r.Splits...)
	return out
}

// Equal reports whether two receipts carry identical field values,
// including item and split order.
func (r Receipt) Equal(other Receipt) bool {
	if r.ID != other.ID ||
		r.Store != other.Store ||
		!r.PaidOn.Equal(other.PaidOn.Time) ||
		r.Payer != other.Payer ||
		r.Format != other.Format ||
		r.DiscountPct != other.DiscountPct ||
		r.ExclusionMode != other.ExclusionMode ||
		r.ManualTotal != other.ManualTotal ||
		r.Strategy != other.Strategy ||
		r.OwnerShares != other.OwnerShares {
		return false
	}
	if len(r.Items) != len(other.Items) || len(r.Splits) != len(other.Splits) {
		return false
	}
	for i := range r.Items {
		if r.Items[i] != other.Items[i] {
			return false
		}
	}
	for i := range r.Splits {
		if r.Splits[i] != other.Splits[i] {
			return false
		}
	}
	return true
}
