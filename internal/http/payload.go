package http

import (
	"fmt"
	"time"

	"scontrini/internal/core"
)

// Wire shapes. Monetary amounts travel as decimal euro strings ("12.50",
// comma accepted on input) so clients never deal in cents.

type receiptPayload struct {
	ID            string            `json:"id,omitempty"`
	Store         string            `json:"store"`
	PaidOn        string            `json:"paid_on"` // YYYY-MM-DD
	Payer         string            `json:"payer"`
	Format        string            `json:"format"`
	DiscountPct   float64           `json:"discount_pct,omitempty"`
	ExclusionMode bool              `json:"exclusion_mode,omitempty"`
	Items         []lineItemPayload `json:"items,omitempty"`
	ManualTotal   string            `json:"manual_total,omitempty"`
	Strategy      string            `json:"split_strategy"`
	OwnerShares   int               `json:"owner_shares,omitempty"`
	Splits        []splitPayload    `json:"splits,omitempty"`
}

type lineItemPayload struct {
	Key         string  `json:"key,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	DebtorID    string  `json:"debtor_id,omitempty"`
	Excluded    bool    `json:"excluded,omitempty"`
}

type splitPayload struct {
	DebtorID string `json:"debtor_id"`
	Shares   int    `json:"shares"`
}

type totalsResponse struct {
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
}

type debtEntryResponse struct {
	DebtorID string `json:"debtor_id"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
}

type summaryResponse struct {
	ReceiptID   string              `json:"receipt_id"`
	OwnerAmount *string             `json:"owner_amount,omitempty"`
	Entries     []debtEntryResponse `json:"entries"`
	Empty       bool                `json:"empty"`
}

type receiptResponse struct {
	Receipt receiptPayload  `json:"receipt"`
	Totals  totalsResponse  `json:"totals"`
	Summary summaryResponse `json:"summary"`
	Locked  bool            `json:"locked"`
	Guard   string          `json:"guard"`
}

type previewResponse struct {
	Totals     totalsResponse  `json:"totals"`
	Summary    summaryResponse `json:"summary"`
	Validation []fieldIssue    `json:"validation,omitempty"`
}

type repaymentPayload struct {
	ID        string `json:"id,omitempty"`
	ReceiptID string `json:"receipt_id"`
	DebtorID  string `json:"debtor_id"`
	Amount    string `json:"amount"`
	RepaidOn  string `json:"repaid_on"`
}

type debtorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const dateLayout = "2006-01-02"

// toCore converts the wire shape to the domain receipt. Malformed dates
// and amounts are reported as field errors, not transport errors.
func (p receiptPayload) toCore() (core.Receipt, core.ValidationErrors) {
	var errs core.ValidationErrors

	r := core.Receipt{
		ID:            p.ID,
		Store:         p.Store,
		Payer:         p.Payer,
		Format:        core.FormatMode(p.Format),
		DiscountPct:   p.DiscountPct,
		ExclusionMode: p.ExclusionMode,
		Strategy:      core.SplitStrategy(p.Strategy),
		OwnerShares:   p.OwnerShares,
	}
	if r.Strategy == "" {
		r.Strategy = core.SplitNone
	}

	if p.PaidOn != "" {
		t, err := time.Parse(dateLayout, p.PaidOn)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "paid_on", Err: core.ErrInvalidDate})
		} else {
			r.PaidOn = core.Date{Time: t}
		}
	}

	if p.ManualTotal != "" {
		cents, err := core.ParseDecimalToCents(p.ManualTotal)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "manual_total", Err: err})
		} else {
			r.ManualTotal = core.Money{Cents: cents}
		}
	}

	for i, it := range p.Items {
		item := core.LineItem{
			Key:         it.Key,
			Description: it.Description,
			Quantity:    it.Quantity,
			DebtorID:    it.DebtorID,
			Excluded:    it.Excluded,
		}
		if it.UnitPrice != "" {
			cents, err := core.ParseDecimalToCents(it.UnitPrice)
			if err != nil {
				errs = append(errs, core.FieldError{
					Field: fmt.Sprintf("items[%d].unit_price", i),
					Err:   err,
				})
			} else {
				item.UnitPrice = core.Money{Cents: cents}
			}
		}
		r.Items = append(r.Items, item)
	}

	for _, sp := range p.Splits {
		r.Splits = append(r.Splits, core.ReceiptSplit{DebtorID: sp.DebtorID, Shares: sp.Shares})
	}

	return r, errs
}

func receiptToPayload(r core.Receipt) receiptPayload {
	p := receiptPayload{
		ID:            r.ID,
		Store:         r.Store,
		Payer:         r.Payer,
		Format:        string(r.Format),
		DiscountPct:   r.DiscountPct,
		ExclusionMode: r.ExclusionMode,
		Strategy:      string(r.Strategy),
		OwnerShares:   r.OwnerShares,
	}
	if !r.PaidOn.IsZero() {
		p.PaidOn = r.PaidOn.Format(dateLayout)
	}
	if r.ManualTotal.Cents != 0 {
		p.ManualTotal = r.ManualTotal.String()
	}
	for _, it := range r.Items {
		p.Items = append(p.Items, lineItemPayload{
			Key:         it.Key,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.String(),
			DebtorID:    it.DebtorID,
			Excluded:    it.Excluded,
		})
	}
	for _, sp := range r.Splits {
		p.Splits = append(p.Splits, splitPayload{DebtorID: sp.DebtorID, Shares: sp.Shares})
	}
	return p
}

func totalsToResponse(t core.Totals) totalsResponse {
	return totalsResponse{
		Subtotal: t.Subtotal.String(),
		Total:    t.Total.String(),
	}
}

func summaryToResponse(receiptID string, s core.DebtSummary) summaryResponse {
	resp := summaryResponse{
		ReceiptID: receiptID,
		Entries:   []debtEntryResponse{},
		Empty:     s.Empty(),
	}
	if s.Owner != nil {
		owner := s.Owner.String()
		resp.OwnerAmount = &owner
	}
	for _, e := range s.Entries {
		resp.Entries = append(resp.Entries, debtEntryResponse{
			DebtorID: e.DebtorID,
			Label:    e.Label,
			Amount:   e.Amount.String(),
		})
	}
	return resp
}

func validationToIssues(errs core.ValidationErrors) []fieldIssue {
	issues := make([]fieldIssue, 0, len(errs))
	for _, fe := range errs {
		issues = append(issues, fieldIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return issues
}
