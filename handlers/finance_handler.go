package handlers

import (
	"net/http"
	"time"

	"github.com/Alex1231123112/manager/services"
)

type FinanceHandler struct {
	financeService services.FinanceService
	location       *time.Location
}

func NewFinanceHandler(fs services.FinanceService, location *time.Location) *FinanceHandler {
	return &FinanceHandler{financeService: fs, location: location}
}

func (h *FinanceHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	entries, err := h.financeService.List(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FinanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input services.FinanceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.financeService.Create(r.Context(), teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FinanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.financeService.Delete(r.Context(), teamID, entryID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report - доходы и расходы за период ?from&to (YYYY-MM-DD), по умолчанию текущий месяц.
func (h *FinanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	from, err := parseDateParam(r, "from", h.location)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	to, err := parseDateParam(r, "to", h.location)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.financeService.Report(r.Context(), teamID, from, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
