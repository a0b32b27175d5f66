package http

import (
	"net/http"

	"scontrini/internal/core"
)

// handlePreviewReceipt recomputes totals and the debt summary for an
// in-progress receipt without persisting anything. Incomplete receipts are
// fine here; validation issues are reported alongside the figures.
func (s *Server) handlePreviewReceipt(w http.ResponseWriter, r *http.Request) {
	var payload receiptPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	receipt, parseErrs := payload.toCore()
	if len(parseErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation failed",
			"validation": validationToIssues(parseErrs),
		})
		return
	}

	resp := previewResponse{
		Totals:  totalsToResponse(core.ComputeTotals(receipt)),
		Summary: summaryToResponse(receipt.ID, s.debtSummary(r, receipt)),
	}
	if err := receipt.Validate(); err != nil {
		if verrs, ok := err.(core.ValidationErrors); ok {
			resp.Validation = validationToIssues(verrs)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveReceipt(w http.ResponseWriter, r *http.Request) {
	s.saveReceipt(w, r, "")
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	s.saveReceipt(w, r, r.PathValue("id"))
}

func (s *Server) saveReceipt(w http.ResponseWriter, r *http.Request, id string) {
	var payload receiptPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	receipt, parseErrs := payload.toCore()
	if len(parseErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation failed",
			"validation": validationToIssues(parseErrs),
		})
		return
	}
	if id != "" {
		receipt.ID = id
	}

	savedID, err := s.service.SaveReceipt(r.Context(), receipt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.summaryCache.Invalidate(savedID)

	status := http.StatusCreated
	if id != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]string{"id": savedID})
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	ws, err := s.service.LoadSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	receipt := ws.Receipt()
	writeJSON(w, http.StatusOK, receiptResponse{
		Receipt: receiptToPayload(receipt),
		Totals:  totalsToResponse(ws.Totals()),
		Summary: summaryToResponse(receipt.ID, ws.Summary()),
		Locked:  ws.Locked(),
		Guard:   ws.GuardState().String(),
	})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if resp, ok := s.summaryCache.Get(id); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ws, err := s.service.LoadSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := summaryToResponse(id, ws.Summary())
	s.summaryCache.Put(id, resp)
	writeJSON(w, http.StatusOK, resp)
}

// debtSummary resolves debtor labels for unsaved receipts.
func (s *Server) debtSummary(r *http.Request, receipt core.Receipt) core.DebtSummary {
	names := map[string]string{}
	if debtors, err := s.service.ListDebtors(r.Context()); err == nil {
		for _, d := range debtors {
			names[d.ID] = d.Name
		}
	}
	return core.ComputeDebtSummary(receipt, names)
}
