package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Alex1231123112/manager/services"
	"github.com/shopspring/decimal"
)

type DebtHandler struct {
	playerService   services.PlayerService
	reminderService services.ReminderService
}

func NewDebtHandler(ps services.PlayerService, rs services.ReminderService) *DebtHandler {
	return &DebtHandler{playerService: ps, reminderService: rs}
}

func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	debtors, err := h.playerService.Debtors(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	total := decimal.Zero
	for _, p := range debtors {
		total = total.Add(p.Debt)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"debtors": debtors, "total": total}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Set выставляет долг игроку по имени.
func (h *DebtHandler) Set(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		badRequestResponse(w, r, errors.New("name is required"))
		return
	}

	player, err := h.playerService.SetDebtByName(r.Context(), teamID, input.Name, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DebtHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.ClearDebt(r.Context(), teamID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Notify отправляет сводку должников в чат команды вне расписания.
func (h *DebtHandler) Notify(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	sent, err := h.reminderService.SendDebtReminder(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sent": sent}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
