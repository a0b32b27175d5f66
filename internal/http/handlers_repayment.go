package http

import (
	"net/http"
	"strings"
	"time"

	"scontrini/internal/core"
)

func (s *Server) handleRecordRepayment(w http.ResponseWriter, r *http.Request) {
	var payload repaymentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if strings.TrimSpace(payload.ReceiptID) == "" {
		writeError(w, http.StatusBadRequest, "receipt_id is required")
		return
	}
	if strings.TrimSpace(payload.DebtorID) == "" {
		writeError(w, http.StatusBadRequest, "debtor_id is required")
		return
	}

	cents, err := core.ParseDecimalToCents(payload.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+err.Error())
		return
	}

	repaidOn := core.Date{Time: time.Now()}
	if payload.RepaidOn != "" {
		t, err := time.Parse(dateLayout, payload.RepaidOn)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid repaid_on date")
			return
		}
		repaidOn = core.Date{Time: t}
	}

	id, err := s.service.RecordRepayment(r.Context(), core.Repayment{
		ReceiptID: payload.ReceiptID,
		DebtorID:  payload.DebtorID,
		Amount:    core.Money{Cents: cents},
		RepaidOn:  repaidOn,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteRepayment(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRepayment(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRepayments(w http.ResponseWriter, r *http.Request) {
	reps, err := s.service.ListRepayments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := make([]repaymentPayload, 0, len(reps))
	for _, rep := range reps {
		payload = append(payload, repaymentPayload{
			ID:        rep.ID,
			ReceiptID: rep.ReceiptID,
			DebtorID:  rep.DebtorID,
			Amount:    rep.Amount.String(),
			RepaidOn:  rep.RepaidOn.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, payload)
}
