package handlers

import (
	"net/http"
	"time"

	"github.com/Alex1231123112/manager/services"
)

type EventHandler struct {
	eventService services.EventService
	location     *time.Location
}

func NewEventHandler(es services.EventService, location *time.Location) *EventHandler {
	return &EventHandler{eventService: es, location: location}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	events, err := h.eventService.List(r.Context(), teamID, from, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create сохраняет событие; объявление в чат команды отправляет сервис.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), teamID, eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
