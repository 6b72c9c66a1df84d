package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTeamLister struct {
	teams []*models.Team
	err   error
}

func (f fakeTeamLister) List(context.Context) ([]*models.Team, error) {
	return f.teams, f.err
}

func newSessions() *Sessions {
	return NewSessions("test-secret", time.Hour, false, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func issueCookie(t *testing.T, s *Sessions, session Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, s.Issue(rec, session))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func echoSession(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	w.Header().Set("X-User", session.Username)
	w.WriteHeader(http.StatusNoContent)
}

func TestSessions_IssueAndParse(t *testing.T) {
	s := newSessions()
	cookie := issueCookie(t, s, Session{Username: "admin", TeamID: 3})

	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	session, err := s.Parse(req)
	require.NoError(t, err)
	assert.Equal(t, Session{Username: "admin", TeamID: 3}, session)
}

func TestSessions_ParseRejects(t *testing.T) {
	s := newSessions()

	expired := newSessions()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	other := NewSessions("other-secret", time.Hour, false, slog.Default())

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"missing", nil},
		{"garbage", &http.Cookie{Name: SessionCookieName, Value: "not-a-token"}},
		{"expired", issueCookie(t, expired, Session{Username: "admin"})},
		{"foreign secret", issueCookie(t, other, Session{Username: "admin"})},
		{"alg none", &http.Cookie{Name: SessionCookieName, Value: none}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			_, err := s.Parse(req)
			assert.True(t, errors.Is(err, ErrNoSession))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s := newSessions()
	handler := s.Authenticate(http.HandlerFunc(echoSession))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(issueCookie(t, s, Session{Username: "admin"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get("X-User"))
}

func TestRequireTeam(t *testing.T) {
	s := newSessions()

	serve := func(lister TeamLister, session Session) *httptest.ResponseRecorder {
		var seen Session
		handler := s.RequireTeam(lister)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = SessionFromContext(r.Context())
			w.Header().Set("X-Team-ID", strconv.Itoa(seen.TeamID))
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/admin/players", nil)
		req = req.WithContext(WithSession(req.Context(), session))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("selected team passes", func(t *testing.T) {
		rec := serve(fakeTeamLister{}, Session{Username: "admin", TeamID: 2})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-Team-ID"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("first team auto-selected", func(t *testing.T) {
		rec := serve(fakeTeamLister{teams: []*models.Team{{ID: 5}, {ID: 7}}}, Session{Username: "admin"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-Team-ID"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		session, err := s.Parse(req)
		require.NoError(t, err)
		assert.Equal(t, 5, session.TeamID)
	})

	t.Run("no teams", func(t *testing.T) {
		rec := serve(fakeTeamLister{}, Session{Username: "admin"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"select a team"}`, rec.Body.String())
	})

	t.Run("list error", func(t *testing.T) {
		rec := serve(fakeTeamLister{err: errors.New("db down")}, Session{Username: "admin"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
