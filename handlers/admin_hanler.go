package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
)

// SystemHandler - настройки бота и журнал интеграций, общие для всех команд.
type SystemHandler struct {
	settingsService services.SettingsService
	metricsService  services.IntegrationMetricsService
	location        *time.Location
}

func NewSystemHandler(settings services.SettingsService, metrics services.IntegrationMetricsService, location *time.Location) *SystemHandler {
	return &SystemHandler{settingsService: settings, metricsService: metrics, location: location}
}

func (h *SystemHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, settings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SystemHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input models.SystemSettings
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, settings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// IntegrationStats - сводка отправок за период (?from&to, по умолчанию 7 дней).
func (h *SystemHandler) IntegrationStats(w http.ResponseWriter, r *http.Request) {
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
		// Граница "to" включает весь день.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	stats, err := h.metricsService.Stats(r.Context(), from, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SystemHandler) IntegrationEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.metricsService.Recent(r.Context(), toInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func toInt(s string, def int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}
