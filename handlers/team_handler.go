package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Alex1231123112/manager/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

type teamChatSettings struct {
	ChannelID   string `json:"channelId"`
	GroupChatID string `json:"groupChatId"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetChatSettings возвращает канал и группу выбранной команды.
func (h *TeamHandler) GetChatSettings(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	team, err := h.teamService.Get(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := teamChatSettings{
		ChannelID:   derefString(team.ChannelChatID),
		GroupChatID: derefString(team.GroupChatID),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UpdateChatSettings(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input teamChatSettings
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.UpdateChats(r.Context(), teamID, input.ChannelID, input.GroupChatID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	file, contentType, err := readUpload(w, r, "logo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	team, err := h.teamService.UploadLogo(r.Context(), teamID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Notify отправляет произвольное сообщение в чат команды.
func (h *TeamHandler) Notify(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		badRequestResponse(w, r, errors.New("text is required"))
		return
	}

	if err := h.teamService.Broadcast(r.Context(), teamID, input.Text); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sent": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
