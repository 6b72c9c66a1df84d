package handlers

import (
	"net/http"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
)

type LeagueTableHandler struct {
	tableService services.LeagueTableService
}

func NewLeagueTableHandler(ts services.LeagueTableService) *LeagueTableHandler {
	return &LeagueTableHandler{tableService: ts}
}

func (h *LeagueTableHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	rows, err := h.tableService.List(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rows": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Replace заменяет таблицу целиком.
func (h *LeagueTableHandler) Replace(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input struct {
		Rows []*models.LeagueTableRow `json:"rows"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.tableService.Replace(r.Context(), teamID, input.Rows)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rows": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
