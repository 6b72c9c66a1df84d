package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Alex1231123112/manager/middleware"
	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
)

type AuthHandler struct {
	authService services.AuthService
	teamService services.TeamService
	sessions    *middleware.Sessions
}

func NewAuthHandler(authService services.AuthService, teamService services.TeamService, sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		teamService: teamService,
		sessions:    sessions,
	}
}

// Login godoc
// @Summary Вход в админку
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Логин и пароль"
// @Success 200 {object} models.Admin
// @Failure 401 {object} map[string]string
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username and password are required"))
		return
	}

	admin, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.sessions.Issue(w, middleware.Session{Username: admin.Username}); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает администратора, список команд и выбранную команду.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "unauthorized")
		return
	}

	admin, err := h.authService.GetAdmin(r.Context(), session.Username)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			h.sessions.Clear(w)
			unauthorizedResponse(w, r, "unauthorized")
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	teams, err := h.teamService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"admin":   admin,
		"teams":   teams,
		"team_id": session.TeamID,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) SelectTeam(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "unauthorized")
		return
	}

	var input struct {
		TeamID int `json:"teamId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("teamId is required"))
		return
	}

	team, err := h.teamService.Get(r.Context(), input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	session.TeamID = team.ID
	if err := h.sessions.Issue(w, session); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
