package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scontrini/internal/core"
	"scontrini/internal/services"
	"scontrini/internal/session"
	"scontrini/internal/storage"
)

// fakeService keeps receipts in memory and records calls.
type fakeService struct {
	receipts   map[string]core.Receipt
	settled    map[string]bool
	debtors    []core.Debtor
	repayments map[string]core.Repayment
	saveErr    error
}

func newFakeService() *fakeService {
	return &fakeService{
		receipts:   map[string]core.Receipt{},
		settled:    map[string]bool{},
		debtors:    []core.Debtor{{ID: "d1", Name: "Anna"}},
		repayments: map[string]core.Repayment{},
	}
}

func (f *fakeService) NewSession(ctx context.Context) (*session.WorkingSet, error) {
	return session.NewDraft(f.debtors), nil
}

func (f *fakeService) LoadSession(ctx context.Context, id string) (*session.WorkingSet, error) {
	r, ok := f.receipts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return session.Open(r, f.debtors, f.settled[id]), nil
}

func (f *fakeService) SaveReceipt(ctx context.Context, r core.Receipt) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = "generated-id"
	}
	f.receipts[r.ID] = r
	return r.ID, nil
}

func (f *fakeService) RecordRepayment(ctx context.Context, rep core.Repayment) (string, error) {
	rep.ID = "rep-1"
	f.repayments[rep.ID] = rep
	f.settled[rep.ReceiptID] = true
	return rep.ID, nil
}

func (f *fakeService) DeleteRepayment(ctx context.Context, id string) error {
	if _, ok := f.repayments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.repayments, id)
	return nil
}

func (f *fakeService) ListRepayments(ctx context.Context, receiptID string) ([]core.Repayment, error) {
	var out []core.Repayment
	for _, rep := range f.repayments {
		if rep.ReceiptID == receiptID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (f *fakeService) ListDebtors(ctx context.Context) ([]core.Debtor, error) {
	return f.debtors, nil
}

func (f *fakeService) CreateDebtor(ctx context.Context, name string) (core.Debtor, error) {
	d := core.Debtor{ID: "d-new", Name: name}
	f.debtors = append(f.debtors, d)
	return d, nil
}

func newTestServer(t *testing.T) (*Server, *fakeService) {
	t.Helper()
	svc := newFakeService()
	srv := NewServer(":0", svc, 16, time.Minute)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
	})
	return srv, svc
}

const validReceiptBody = `{
	"store": "Esselunga",
	"paid_on": "2025-03-14",
	"payer": "self",
	"format": "itemised",
	"split_strategy": "per_item",
	"items": [
		{"description": "Milk", "quantity": 2, "unit_price": "1,50"},
		{"description": "Bread", "quantity": 1, "unit_price": "3.00", "debtor_id": "d1"}
	]
}`

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestPreviewReceipt(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/receipts/preview", validReceiptBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Totals.Total != "6.00" {
		t.Errorf("total = %q, want 6.00", resp.Totals.Total)
	}
	if len(resp.Summary.Entries) != 1 || resp.Summary.Entries[0].Label != "Anna" {
		t.Errorf("summary entries = %+v, want one entry labelled Anna", resp.Summary.Entries)
	}
	if len(resp.Validation) != 0 {
		t.Errorf("validation issues on valid receipt: %+v", resp.Validation)
	}
}

func TestPreviewReportsValidationIssues(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"store": "", "payer": "self", "format": "itemised", "split_strategy": "none"}`
	rec := doRequest(srv, http.MethodPost, "/api/receipts/preview", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview = %d, want 200 (issues reported in body)", rec.Code)
	}

	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Validation) == 0 {
		t.Error("expected validation issues for incomplete receipt")
	}
}

func TestSaveAndGetReceipt(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/receipts", validReceiptBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d, body %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	id := created["id"]
	if id == "" {
		t.Fatal("save returned empty id")
	}

	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d, body %s", rec.Code, rec.Body.String())
	}
	var got receiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Receipt.Store != "Esselunga" {
		t.Errorf("store = %q, want Esselunga", got.Receipt.Store)
	}
	if got.Locked {
		t.Error("fresh receipt reported as locked")
	}
	if got.Totals.Total != "6.00" {
		t.Errorf("total = %q, want 6.00", got.Totals.Total)
	}
}

func TestSaveRejectsInvalidReceipt(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"store": "", "payer": "", "format": "itemised", "split_strategy": "none"}`
	rec := doRequest(srv, http.MethodPost, "/api/receipts", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("save invalid = %d, want 422; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Validation []fieldIssue `json:"validation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Validation) == 0 {
		t.Error("expected field-level validation issues")
	}
}

func TestSaveRejectsMalformedAmount(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"store": "X", "paid_on": "2025-01-01", "payer": "self", "format": "itemised",
		"split_strategy": "none",
		"items": [{"description": "A", "quantity": 1, "unit_price": "abc"}]}`
	rec := doRequest(srv, http.MethodPost, "/api/receipts", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("save with bad amount = %d, want 422", rec.Code)
	}
}

func TestSaveSettledConflict(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.saveErr = services.ErrSettled

	rec := doRequest(srv, http.MethodPost, "/api/receipts", validReceiptBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("save settled = %d, want 409", rec.Code)
	}
}

func TestGetReceiptNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/receipts/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing = %d, want 404", rec.Code)
	}
}

func TestSummaryCachedAndInvalidatedOnUpdate(t *testing.T) {
	srv, svc := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/receipts", validReceiptBody)
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"]

	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id+"/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d", rec.Code)
	}
	var first summaryResponse
	json.Unmarshal(rec.Body.Bytes(), &first)
	if len(first.Entries) != 1 || first.Entries[0].Amount != "3.00" {
		t.Fatalf("summary entries = %+v", first.Entries)
	}

	// Mutate behind the cache: without invalidation the second read would
	// still see the old amounts.
	r := svc.receipts[id]
	r.DiscountPct = 50
	svc.receipts[id] = r

	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id+"/summary", "")
	var second summaryResponse
	json.Unmarshal(rec.Body.Bytes(), &second)
	if second.Entries[0].Amount != "3.00" {
		t.Fatalf("expected cached summary, got %+v", second.Entries)
	}

	// An update through the API invalidates the cache.
	updated := strings.Replace(validReceiptBody, `"split_strategy": "per_item",`, `"split_strategy": "per_item", "discount_pct": 50,`, 1)
	rec = doRequest(srv, http.MethodPut, "/api/receipts/"+id, updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id+"/summary", "")
	var third summaryResponse
	json.Unmarshal(rec.Body.Bytes(), &third)
	if third.Entries[0].Amount != "1.50" {
		t.Fatalf("summary after update = %+v, want 1.50", third.Entries)
	}
}

func TestRecordAndDeleteRepayment(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/receipts", validReceiptBody)
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"]

	body := `{"receipt_id": "` + id + `", "debtor_id": "d1", "amount": "3,00", "repaid_on": "2025-03-20"}`
	rec = doRequest(srv, http.MethodPost, "/api/repayments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record repayment = %d, body %s", rec.Code, rec.Body.String())
	}

	// The receipt now reports as locked.
	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id, "")
	var got receiptResponse
	json.Unmarshal(rec.Body.Bytes(), &got)
	if !got.Locked {
		t.Error("receipt with repayment not reported as locked")
	}
	if got.Guard != "locked" {
		t.Errorf("guard = %q, want locked", got.Guard)
	}

	rec = doRequest(srv, http.MethodGet, "/api/receipts/"+id+"/repayments", "")
	var reps []repaymentPayload
	json.Unmarshal(rec.Body.Bytes(), &reps)
	if len(reps) != 1 || reps[0].Amount != "3.00" {
		t.Fatalf("repayments = %+v", reps)
	}

	rec = doRequest(srv, http.MethodDelete, "/api/repayments/"+reps[0].ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete repayment = %d", rec.Code)
	}
}

func TestRepaymentRequiresReceiptAndDebtor(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/repayments", `{"amount": "1.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repayment without ids = %d, want 400", rec.Code)
	}
}

func TestDebtors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/debtors", `{"name": "Luca"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debtor = %d", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/debtors", "")
	var debtors []debtorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &debtors); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(debtors) != 2 {
		t.Fatalf("debtors = %+v, want 2", debtors)
	}

	rec = doRequest(srv, http.MethodPost, "/api/debtors", `{"name": "  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("create blank debtor = %d, want 400", rec.Code)
	}
}
