package handlers

import (
	"net/http"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
)

type MatchHandler struct {
	matchService      services.MatchService
	attendanceService services.AttendanceService
	statsService      services.MatchStatsService
}

func NewMatchHandler(ms services.MatchService, as services.AttendanceService, ss services.MatchStatsService) *MatchHandler {
	return &MatchHandler{
		matchService:      ms,
		attendanceService: as,
		statsService:      ss,
	}
}

// matchParams - команда сессии и matchID из URL.
func matchParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return 0, 0, false
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return teamID, matchID, true
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	matches, err := h.matchService.List(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input services.MatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Create(r.Context(), teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.Get(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input services.MatchUpdate
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Update(r.Context(), teamID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	if err := h.matchService.Delete(r.Context(), teamID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) SetResult(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input struct {
		OurScore      int `json:"our_score"`
		OpponentScore int `json:"opponent_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SetResult(r.Context(), teamID, matchID, input.OurScore, input.OpponentScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.Cancel(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	view, err := h.attendanceService.MatchView(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetAttendance - ручная отметка ответа участника из админки.
func (h *MatchHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input struct {
		TelegramUserID string `json:"telegram_user_id"`
		Status         string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, valid := models.ParseAttendanceStatus(input.Status)
	if !valid {
		mapServiceErrorToHTTP(w, r, services.ErrInvalidAttendance)
		return
	}

	// Матч должен принадлежать выбранной команде.
	if _, err := h.matchService.Get(r.Context(), teamID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if _, err := h.attendanceService.Record(r.Context(), matchID, input.TelegramUserID, status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	view, err := h.attendanceService.MatchView(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListStats(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	stats, err := h.statsService.List(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	mvp, err := h.statsService.MVP(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats, "mvp": mvp}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SaveStats(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input struct {
		Stats []*models.MatchPlayerStat `json:"stats"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.Save(r.Context(), teamID, matchID, input.Stats)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Card отдает PNG-карточку матча.
func (h *MatchHandler) Card(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	png, _, err := h.matchService.RenderCard(r.Context(), teamID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writePNG(w, r, png)
}

func (h *MatchHandler) SendToChannel(w http.ResponseWriter, r *http.Request) {
	teamID, matchID, ok := matchParams(w, r)
	if !ok {
		return
	}

	if err := h.matchService.SendToChannel(r.Context(), teamID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sent": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
