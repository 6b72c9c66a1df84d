package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Alex1231123112/manager/services"
	"github.com/go-chi/chi/v5"
)

type MemberHandler struct {
	memberService     services.MemberService
	attendanceService services.AttendanceService
}

func NewMemberHandler(ms services.MemberService, as services.AttendanceService) *MemberHandler {
	return &MemberHandler{memberService: ms, attendanceService: as}
}

func telegramUserIDFromURL(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "telegramUserID"))
	if id == "" {
		return "", errors.New("missing telegramUserID in URL path")
	}
	return id, nil
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	members, err := h.memberService.List(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"members": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update меняет роль, активность и карточку игрока участника.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	userID, err := telegramUserIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.MemberUpdate
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.memberService.Update(r.Context(), teamID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Attendance - ответы участника по предстоящим матчам.
func (h *MemberHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	userID, err := telegramUserIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.memberService.Get(r.Context(), teamID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	rows, err := h.attendanceService.MemberView(r.Context(), teamID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"attendance": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
