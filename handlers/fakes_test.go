package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Alex1231123112/manager/middleware"
	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSessions() *middleware.Sessions {
	return middleware.NewSessions("test-secret", time.Hour, false, discardLogger())
}

// withTeam кладет в запрос сессию с выбранной командой и параметры маршрута.
func withTeam(r *http.Request, teamID int, params map[string]string) *http.Request {
	ctx := middleware.WithSession(r.Context(), middleware.Session{Username: "admin", TeamID: teamID})
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

type fakeAuth struct {
	services.AuthService
	admins map[string]string
}

func (f *fakeAuth) Login(_ context.Context, creds models.Credentials) (*models.Admin, error) {
	if pass, ok := f.admins[creds.Username]; ok && pass == creds.Password {
		return &models.Admin{ID: 1, Username: creds.Username}, nil
	}
	return nil, services.ErrInvalidCredentials
}

func (f *fakeAuth) GetAdmin(_ context.Context, username string) (*models.Admin, error) {
	if _, ok := f.admins[username]; ok {
		return &models.Admin{ID: 1, Username: username}, nil
	}
	return nil, services.ErrAdminNotFound
}

type fakeTeams struct {
	services.TeamService
	teams []*models.Team
}

func (f *fakeTeams) List(context.Context) ([]*models.Team, error) {
	return f.teams, nil
}

func (f *fakeTeams) Get(_ context.Context, id int) (*models.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, services.ErrTeamNotFound
}

type fakePlayers struct {
	services.PlayerService
	players []*models.Player
	setName string
	setSum  decimal.Decimal
}

func (f *fakePlayers) Debtors(_ context.Context, teamID int) ([]*models.Player, error) {
	var out []*models.Player
	for _, p := range f.players {
		if p.TeamID == teamID && p.Debt.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayers) SetDebtByName(_ context.Context, teamID int, name string, amount decimal.Decimal) (*models.Player, error) {
	if amount.IsNegative() {
		return nil, services.ErrInvalidAmount
	}
	f.setName, f.setSum = name, amount
	for _, p := range f.players {
		if p.TeamID == teamID && p.Name == name {
			p.Debt = amount
			return p, nil
		}
	}
	return nil, services.ErrPlayerNotFound
}

func (f *fakePlayers) ClearDebt(_ context.Context, teamID, id int) (*models.Player, error) {
	for _, p := range f.players {
		if p.TeamID == teamID && p.ID == id {
			p.Debt = decimal.Zero
			return p, nil
		}
	}
	return nil, services.ErrPlayerNotFound
}

type fakeReminders struct {
	services.ReminderService
	sentFor []int
}

func (f *fakeReminders) SendDebtReminder(_ context.Context, teamID int) (bool, error) {
	f.sentFor = append(f.sentFor, teamID)
	return true, nil
}

type fakeMatches struct {
	services.MatchService
	matches []*models.Match
}

func (f *fakeMatches) Get(_ context.Context, teamID, id int) (*models.Match, error) {
	for _, m := range f.matches {
		if m.ID == id && m.TeamID == teamID {
			return m, nil
		}
	}
	return nil, services.ErrMatchNotFound
}

type recordCall struct {
	matchID int
	userID  string
	status  models.AttendanceStatus
}

type fakeAttendance struct {
	services.AttendanceService
	recorded []recordCall
}

func (f *fakeAttendance) Record(_ context.Context, matchID int, telegramUserID string, status models.AttendanceStatus) (*models.Match, error) {
	f.recorded = append(f.recorded, recordCall{matchID: matchID, userID: telegramUserID, status: status})
	return &models.Match{ID: matchID}, nil
}

func (f *fakeAttendance) MatchView(_ context.Context, _ int, matchID int) (*models.MatchAttendance, error) {
	view := &models.MatchAttendance{MatchID: matchID}
	for _, c := range f.recorded {
		if c.matchID == matchID {
			view.Responded = append(view.Responded, models.AttendanceRow{TelegramUserID: c.userID, Status: c.status})
		}
	}
	return view, nil
}
