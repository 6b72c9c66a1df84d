package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	groupChat  int64 = -100500
	captainID  int64 = 11
	playerID   int64 = 22
	strangerID int64 = 33
	sysAdminID int64 = 44
)

type botFixture struct {
	bot         *Bot
	api         *fakeAPI
	metrics     *fakeMetrics
	teams       *fakeTeams
	members     *fakeMembers
	matches     *fakeMatches
	attendance  *fakeAttendance
	invitations *fakeInvitations
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	chat := "-100500"
	team := &models.Team{ID: 1, Name: "Tigers", TelegramChatID: &chat}
	number := 7
	location := "Арена"

	f := &botFixture{
		api:     &fakeAPI{updates: make(chan tgbotapi.Update)},
		metrics: &fakeMetrics{},
		teams: &fakeTeams{
			byChat: map[string]*models.Team{chat: team},
			byID:   map[int]*models.Team{1: team},
		},
		members: &fakeMembers{
			roles: map[string]models.Role{"11": models.RoleCaptain, "22": models.RolePlayer},
			members: []*models.TeamMember{
				{TeamID: 1, TelegramUserID: "11", Role: models.RoleCaptain, IsActive: true,
					Player: &models.Player{Name: "Иван", Number: &number, IsActive: true, Status: models.PlayerStatusActive}},
				{TeamID: 1, TelegramUserID: "22", Role: models.RolePlayer, IsActive: true,
					Player: &models.Player{Name: "Петр", IsActive: true, Status: models.PlayerStatusInjury}},
			},
		},
		matches: &fakeMatches{
			upcoming: []*models.Match{{ID: 5, TeamID: 1, Opponent: "Lions", Status: models.MatchStatusScheduled,
				Date: time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC), Location: &location}},
			past: []*models.Match{{ID: 4, TeamID: 1, Opponent: "Bears", Status: models.MatchStatusScheduled,
				Date: time.Date(2025, 3, 8, 17, 0, 0, 0, time.UTC)}},
			results: map[int][2]int{},
		},
		attendance:  &fakeAttendance{},
		invitations: &fakeInvitations{team: team, codes: map[string]models.Role{"good": models.RolePlayer}},
	}

	client := NewClient(f.api, f.metrics, discardLogger())
	f.bot = NewBot(f.api, client, BotServices{
		Teams:       f.teams,
		Members:     f.members,
		Matches:     f.matches,
		Attendance:  f.attendance,
		Invitations: f.invitations,
		Settings:    &fakeSettings{adminID: "44"},
	}, time.UTC, discardLogger())
	return f
}

func message(chatID, userID int64, text string) tgbotapi.Update {
	chatType := "group"
	if chatID == userID {
		chatType = "private"
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "User"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text: text,
	}}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: userID},
		Data: data,
	}}
}

func (f *botFixture) lastCallback(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	require.NotEmpty(t, f.api.requests)
	cfg, ok := f.api.requests[len(f.api.requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	return cfg
}

func TestBot_Schedule(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, playerID, "/schedule@TigersBot"))

	assert.Equal(t, "Расписание игр:\n\n⏳ 12.03 17:00 — Lions, Арена", f.api.lastText())
	require.Len(t, f.metrics.events, 1)
	assert.Equal(t, models.EventBotMessage, f.metrics.events[0].eventType)
	require.NotNil(t, f.metrics.events[0].teamID)
	assert.Equal(t, 1, *f.metrics.events[0].teamID)
}

func TestBot_MenuButtonMapsToCommand(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, playerID, "Состав"))

	assert.Equal(t, "Состав команды:\n\n• Иван №7 — в строю\n• Петр — травма", f.api.lastText())
}

func TestBot_NonMemberIsRejected(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, strangerID, "/roster"))

	assert.Equal(t, replyDeactivated, f.api.lastText())
}

func TestBot_PlainTextInGroupIsIgnored(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, playerID, "всем привет"))

	assert.Empty(t, f.api.texts())
}

func TestBot_PrivateChatFallsBackToMembership(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(playerID, playerID, "/profile"))

	assert.Equal(t, "Мой профиль:\nИмя: Петр\nНомер: —\nДолг: нет", f.api.lastText())
}

func TestBot_LeaveRequiresConfirmation(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(groupChat, playerID, "Выйти из команды"))
	assert.Contains(t, f.api.lastText(), "Ответьте ДА")
	assert.Empty(t, f.members.left)

	f.bot.HandleUpdate(ctx, message(groupChat, playerID, "да"))
	assert.Equal(t, []string{"22"}, f.members.left)
	assert.Equal(t, "Вы вышли из команды.", f.api.lastText())

	// Повторное "да" уже ничего не подтверждает.
	f.bot.HandleUpdate(ctx, message(groupChat, playerID, "да"))
	assert.Equal(t, []string{"22"}, f.members.left)
}

func TestBot_LeaveCancelledByOtherReply(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(groupChat, playerID, "/leave"))
	f.bot.HandleUpdate(ctx, message(groupChat, playerID, "нет"))

	assert.Empty(t, f.members.left)
	assert.Equal(t, "Выход отменён.", f.api.lastText())
}

func TestBot_AttendanceCallback(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), callback(playerID, services.AttendCallbackData(5, models.AttendanceLate)))

	require.Len(t, f.attendance.calls, 1)
	assert.Equal(t, attendanceCall{matchID: 5, userID: "22", status: models.AttendanceLate}, f.attendance.calls[0])
	cfg := f.lastCallback(t)
	assert.Equal(t, "Вы выбрали: Опоздаю", cfg.Text)
	assert.False(t, cfg.ShowAlert)
}

func TestBot_AttendanceCallbackRejections(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		data   string
		want   string
	}{
		{"garbage", playerID, "vote:1", "Команда недоступна. Управление - в админке."},
		{"unknown match", playerID, "attend:999:COMING", "Матч не найден."},
		{"not a member", strangerID, "attend:5:COMING", replyDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBotFixture(t)

			f.bot.HandleUpdate(context.Background(), callback(tt.userID, tt.data))

			assert.Empty(t, f.attendance.calls)
			cfg := f.lastCallback(t)
			assert.Equal(t, tt.want, cfg.Text)
			assert.True(t, cfg.ShowAlert)
		})
	}
}

func TestBot_InviteRequiresCaptain(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, playerID, "/invite"))

	assert.Equal(t, "Это действие доступно капитану или админу.", f.api.lastText())
	assert.Zero(t, f.invitations.created)
}

func TestBot_InviteSendsLinkAndQR(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, captainID, "Приглашение"))

	require.Len(t, f.api.sent, 2)
	text := f.api.sent[0].(tgbotapi.MessageConfig).Text
	assert.Contains(t, text, "https://t.me/TigersBot?start=abc123")
	assert.Contains(t, text, "17.03 12:00")

	photo, ok := f.api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, groupChat, photo.ChatID)
	assert.Equal(t, models.EventInviteQR, f.metrics.events[1].eventType)
}

func TestBot_SetRoleRequiresAdmin(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(groupChat, captainID, "/setrole 22 CAPTAIN"))
	assert.Equal(t, "Только админ может выполнить это действие.", f.api.lastText())
	assert.Equal(t, models.RolePlayer, f.members.roles["22"])

	f.members.roles["11"] = models.RoleAdmin
	f.bot.HandleUpdate(ctx, message(groupChat, captainID, "/setrole 22 captain"))
	assert.Equal(t, models.RoleCaptain, f.members.roles["22"])
}

func TestBot_Result(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(groupChat, captainID, "/result 80-75"))
	assert.Equal(t, "Укажите счёт в формате /result 80:75.", f.api.lastText())

	f.bot.HandleUpdate(ctx, message(groupChat, captainID, "/result 80:75"))
	assert.Equal(t, [2]int{80, 75}, f.matches.results[4])
	assert.Equal(t, "Результат сохранён: Bears 80:75.", f.api.lastText())

	f.bot.HandleUpdate(ctx, message(groupChat, captainID, "/result 90:60"))
	assert.Equal(t, "Матч не найден.", f.api.lastText())
}

func TestBot_PollGoesToTeamChat(t *testing.T) {
	f := newBotFixture(t)

	f.bot.HandleUpdate(context.Background(), message(groupChat, playerID, "/poll Тренировка в среду? | Да | Нет"))

	require.Len(t, f.api.sent, 1)
	poll, ok := f.api.sent[0].(tgbotapi.SendPollConfig)
	require.True(t, ok)
	assert.Equal(t, "Тренировка в среду?", poll.Question)
	assert.Equal(t, []string{"Да", "Нет"}, poll.Options)
	assert.Equal(t, models.EventPoll, f.metrics.events[0].eventType)
}

func TestBot_StartWithInvite(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(strangerID, strangerID, "/start good"))
	assert.True(t, strings.HasPrefix(f.api.lastText(), "Вы добавлены в команду «Tigers». Роль:"))

	f.bot.HandleUpdate(ctx, message(strangerID, strangerID, "/start bad"))
	assert.Equal(t, replyBadInvite, f.api.lastText())
}

func TestBot_CreateTeam(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.HandleUpdate(ctx, message(-200, strangerID, "/createteam Lions"))
	assert.Equal(t, replyOnlySysAdmin, f.api.lastText())
	assert.Empty(t, f.teams.created)

	f.bot.HandleUpdate(ctx, message(-200, sysAdminID, "/createteam Lions"))
	assert.Equal(t, []string{"Lions"}, f.teams.created)
	assert.Contains(t, f.api.lastText(), "Команда «Lions» создана")
}

func TestBot_RunStopsOnContextCancel(t *testing.T) {
	f := newBotFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.bot.Run(ctx)
		close(done)
	}()

	f.api.updates <- message(groupChat, playerID, "/results")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	assert.True(t, f.api.stopped)
	assert.Equal(t, "Прошедшие игры:\n\n⏳ 08.03 17:00 — Bears", f.api.lastText())
}
