package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alex1231123112/manager/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: code abc", services.ErrInvitationNotFound), http.StatusNotFound},
		{services.ErrTeamChatConflict, http.StatusConflict},
		{services.ErrMatchNotScheduled, http.StatusConflict},
		{services.ErrInvalidScore, http.StatusBadRequest},
		{services.ErrInvitationExpired, http.StatusBadRequest},
		{services.ErrChatNotConfigured, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrInsufficientRole, http.StatusForbidden},
		{services.ErrMemberInactive, http.StatusForbidden},
		{services.ErrStorageDisabled, http.StatusServiceUnavailable},
		{services.ErrEmailDisabled, http.StatusServiceUnavailable},
		{errors.New("db is down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestGetIDFromURL(t *testing.T) {
	req := withTeam(httptest.NewRequest(http.MethodGet, "/", nil), 1, map[string]string{"matchID": "12", "bad": "x", "zero": "0"})

	id, err := getIDFromURL(req, "matchID")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = getIDFromURL(req, "bad")
	assert.Error(t, err)
	_, err = getIDFromURL(req, "zero")
	assert.Error(t, err)
	_, err = getIDFromURL(req, "missing")
	assert.Error(t, err)
}

func TestCurrentTeamIDWithoutTeam(t *testing.T) {
	rec := httptest.NewRecorder()
	req := withTeam(httptest.NewRequest(http.MethodGet, "/", nil), 0, nil)

	_, ok := currentTeamID(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseDateParam(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)

	req := httptest.NewRequest(http.MethodGet, "/?from=2025-03-01&bad=01.03.2025", nil)
	from, err := parseDateParam(req, "from", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), from)

	empty, err := parseDateParam(req, "to", loc)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = parseDateParam(req, "bad", loc)
	assert.Error(t, err)
}
