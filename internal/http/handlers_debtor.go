package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleListDebtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := s.service.ListDebtors(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := make([]debtorPayload, 0, len(debtors))
	for _, d := range debtors {
		payload = append(payload, debtorPayload{ID: d.ID, Name: d.Name})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateDebtor(w http.ResponseWriter, r *http.Request) {
	var payload debtorPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	d, err := s.service.CreateDebtor(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, debtorPayload{ID: d.ID, Name: d.Name})
}
