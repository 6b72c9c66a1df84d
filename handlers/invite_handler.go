package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	invitationService services.InvitationService
}

func NewInviteHandler(is services.InvitationService) *InviteHandler {
	return &InviteHandler{invitationService: is}
}

func inviteCodeFromURL(r *http.Request) (string, error) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		return "", errors.New("missing invitation code in URL path")
	}
	return code, nil
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListActive(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create выпускает приглашение. Пустая роль - PLAYER, ttl_days 0 - срок по умолчанию.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input struct {
		Role    models.Role `json:"role"`
		TTLDays int         `json:"ttl_days"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invitation, err := h.invitationService.Create(r.Context(), teamID, input.Role, input.TTLDays)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invitation": invitation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	code, err := inviteCodeFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.invitationService.Revoke(r.Context(), teamID, code); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QRCode отдает PNG с QR-кодом ссылки приглашения.
func (h *InviteHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	code, err := inviteCodeFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	png, _, err := h.invitationService.QRCode(r.Context(), teamID, code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writePNG(w, r, png)
}

func (h *InviteHandler) SendByEmail(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	code, err := inviteCodeFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Email) == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	if err := h.invitationService.SendByEmail(r.Context(), teamID, code, input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "Приглашение отправлено на " + strings.TrimSpace(input.Email)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func writePNG(w http.ResponseWriter, r *http.Request, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		slog.WarnContext(r.Context(), "failed to write image response", slog.Any("error", err))
	}
}
