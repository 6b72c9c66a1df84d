package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// texts возвращает тексты отправленных сообщений.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type recordedEvent struct {
	eventType models.IntegrationEventType
	target    string
	err       error
	teamID    *int
	matchID   *int
}

type fakeMetrics struct {
	services.IntegrationMetricsService
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeMetrics) Record(_ context.Context, eventType models.IntegrationEventType, target string, sendErr error, teamID, matchID *int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType, target, sendErr, teamID, matchID})
}

type fakeTeams struct {
	services.TeamService
	byChat  map[string]*models.Team
	byID    map[int]*models.Team
	created []string
}

func (f *fakeTeams) ResolveByChat(_ context.Context, chatID string) (*models.Team, error) {
	if t, ok := f.byChat[chatID]; ok {
		return t, nil
	}
	return nil, services.ErrTeamNotFound
}

func (f *fakeTeams) Get(_ context.Context, id int) (*models.Team, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, services.ErrTeamNotFound
}

func (f *fakeTeams) Create(_ context.Context, name, chatID string, _ *services.TelegramUser) (*models.Team, error) {
	if name == "" {
		return nil, services.ErrTeamNameRequired
	}
	f.created = append(f.created, name)
	team := &models.Team{ID: 100 + len(f.created), Name: name, TelegramChatID: &chatID}
	f.byChat[chatID] = team
	f.byID[team.ID] = team
	return team, nil
}

type fakeMembers struct {
	services.MemberService
	roles   map[string]models.Role
	members []*models.TeamMember
	left    []string
}

func (f *fakeMembers) CanUseBot(_ context.Context, _ int, userID string) (bool, error) {
	return f.roles[userID].IsValid(), nil
}

func (f *fakeMembers) RequireAtLeast(_ context.Context, _ int, userID string, required models.Role) error {
	if !f.roles[userID].AtLeast(required) {
		return &services.RoleError{Required: required}
	}
	return nil
}

func (f *fakeMembers) List(context.Context, int) ([]*models.TeamMember, error) {
	return f.members, nil
}

func (f *fakeMembers) Get(_ context.Context, _ int, userID string) (*models.TeamMember, error) {
	for _, m := range f.members {
		if m.TelegramUserID == userID {
			return m, nil
		}
	}
	return nil, services.ErrMemberNotFound
}

func (f *fakeMembers) SetRole(_ context.Context, teamID int, userID string, role models.Role) (*models.TeamMember, error) {
	f.roles[userID] = role
	return &models.TeamMember{TeamID: teamID, TelegramUserID: userID, Role: role}, nil
}

func (f *fakeMembers) Leave(_ context.Context, _ int, userID string) error {
	f.left = append(f.left, userID)
	return nil
}

func (f *fakeMembers) FirstMembership(_ context.Context, userID string) (*models.TeamMember, error) {
	for _, m := range f.members {
		if m.TelegramUserID == userID {
			return m, nil
		}
	}
	return nil, services.ErrMemberNotFound
}

type fakeMatches struct {
	services.MatchService
	upcoming []*models.Match
	past     []*models.Match
	results  map[int][2]int
}

func (f *fakeMatches) Upcoming(context.Context, int, int) ([]*models.Match, error) {
	return f.upcoming, nil
}

func (f *fakeMatches) Past(context.Context, int, int) ([]*models.Match, error) {
	return f.past, nil
}

func (f *fakeMatches) GetByID(_ context.Context, id int) (*models.Match, error) {
	for _, m := range append(append([]*models.Match{}, f.upcoming...), f.past...) {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, services.ErrMatchNotFound
}

func (f *fakeMatches) PendingResult(context.Context, int) (*models.Match, error) {
	for _, m := range f.past {
		if m.Status == models.MatchStatusScheduled {
			return m, nil
		}
	}
	return nil, services.ErrMatchNotFound
}

func (f *fakeMatches) SetResult(_ context.Context, _ int, id, our, their int) (*models.Match, error) {
	f.results[id] = [2]int{our, their}
	m, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	m.OurScore, m.OpponentScore, m.Status = &our, &their, models.MatchStatusCompleted
	return m, nil
}

type attendanceCall struct {
	matchID int
	userID  string
	status  models.AttendanceStatus
}

type fakeAttendance struct {
	services.AttendanceService
	calls []attendanceCall
}

func (f *fakeAttendance) Record(_ context.Context, matchID int, userID string, status models.AttendanceStatus) (*models.Match, error) {
	f.calls = append(f.calls, attendanceCall{matchID, userID, status})
	return &models.Match{ID: matchID}, nil
}

type fakeInvitations struct {
	services.InvitationService
	team    *models.Team
	codes   map[string]models.Role
	created int
}

func (f *fakeInvitations) Create(_ context.Context, teamID int, role models.Role, _ int) (*models.Invitation, error) {
	f.created++
	return &models.Invitation{
		Code:      "abc123",
		TeamID:    teamID,
		Role:      role,
		ExpiresAt: time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeInvitations) BuildInviteLink(code string) string {
	return "https://t.me/TigersBot?start=" + code
}

func (f *fakeInvitations) QRCode(context.Context, int, string) ([]byte, *models.Invitation, error) {
	return []byte("\x89PNG"), nil, nil
}

func (f *fakeInvitations) Redeem(_ context.Context, code string, user services.TelegramUser) (*services.RedeemResult, error) {
	role, ok := f.codes[code]
	if !ok {
		return nil, services.ErrInvitationNotFound
	}
	return &services.RedeemResult{
		Team:   f.team,
		Role:   role,
		Member: &models.TeamMember{TeamID: f.team.ID, TelegramUserID: user.ID, Role: role, IsActive: true},
	}, nil
}

type fakeSettings struct {
	services.SettingsService
	adminID string
}

func (f *fakeSettings) CanCreateTeamWithoutInvite(_ context.Context, userID, _ string) (bool, error) {
	return f.adminID != "" && userID == f.adminID, nil
}
