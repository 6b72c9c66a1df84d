package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Updater - BotAPI с получением обновлений через long polling.
type Updater interface {
	BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type BotServices struct {
	Teams       services.TeamService
	Members     services.MemberService
	Matches     services.MatchService
	Attendance  services.AttendanceService
	Invitations services.InvitationService
	Settings    services.SettingsService
}

type leaveKey struct {
	chatID int64
	userID int64
}

// Bot обрабатывает команды и нажатия кнопок из Telegram.
type Bot struct {
	api      Updater
	client   *Client
	svc      BotServices
	location *time.Location
	logger   *slog.Logger

	mu           sync.Mutex
	pendingLeave map[leaveKey]int
}

func NewBot(api Updater, client *Client, svc BotServices, location *time.Location, logger *slog.Logger) *Bot {
	if location == nil {
		location = time.UTC
	}
	return &Bot{
		api:          api,
		client:       client,
		svc:          svc,
		location:     location,
		logger:       logger,
		pendingLeave: make(map[leaveKey]int),
	}
}

// RegisterCommands публикует список команд в меню Telegram.
func (b *Bot) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: cmdSchedule, Description: "Расписание игр"},
		tgbotapi.BotCommand{Command: cmdResults, Description: "Прошедшие игры"},
		tgbotapi.BotCommand{Command: cmdRoster, Description: "Состав команды"},
		tgbotapi.BotCommand{Command: cmdProfile, Description: "Мой профиль"},
		tgbotapi.BotCommand{Command: cmdPoll, Description: "Опрос на игру"},
		tgbotapi.BotCommand{Command: cmdInvite, Description: "Приглашение в команду"},
		tgbotapi.BotCommand{Command: cmdResult, Description: "Записать результат игры"},
		tgbotapi.BotCommand{Command: cmdLeave, Description: "Выйти из команды"},
		tgbotapi.BotCommand{Command: cmdHelp, Description: "Помощь"},
	)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	return nil
}

// Run читает обновления до отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("Telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "panic while handling telegram update",
				slog.Int("update_id", update.UpdateID),
				slog.Any("panic", r),
			)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// request - входящее сообщение с разобранной командой.
type request struct {
	msg     *tgbotapi.Message
	chatID  string
	user    services.TelegramUser
	command string
	args    string
	team    *models.Team
}

func (r *request) private() bool {
	return r.msg.Chat.IsPrivate()
}

func (r *request) teamID() *int {
	if r.team == nil {
		return nil
	}
	id := r.team.ID
	return &id
}

func telegramUser(u *tgbotapi.User) services.TelegramUser {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	return services.TelegramUser{
		ID:          strconv.FormatInt(u.ID, 10),
		Username:    u.UserName,
		DisplayName: name,
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	command, args := parseCommand(msg.Text)
	req := &request{
		msg:     msg,
		chatID:  strconv.FormatInt(msg.Chat.ID, 10),
		user:    telegramUser(msg.From),
		command: command,
		args:    args,
	}

	if b.hasPendingLeave(msg.Chat.ID, msg.From.ID) {
		b.confirmLeave(ctx, req)
		if command == "" {
			return
		}
	}

	if command == "" {
		if req.private() {
			b.reply(ctx, req, helpText(), true)
		}
		return
	}

	switch command {
	case cmdStart:
		b.handleStart(ctx, req)
		return
	case cmdCreateTeam:
		b.handleCreateTeam(ctx, req)
		return
	case cmdHelp:
		b.reply(ctx, req, helpText(), true)
		return
	}

	team, err := b.resolveTeam(ctx, req)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if team == nil {
		b.reply(ctx, req, replyNoTeam, false)
		return
	}
	req.team = team

	allowed, err := b.svc.Members.CanUseBot(ctx, team.ID, req.user.ID)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if !allowed {
		b.reply(ctx, req, replyDeactivated, false)
		return
	}

	switch command {
	case cmdSchedule:
		err = b.handleSchedule(ctx, req)
	case cmdResults:
		err = b.handleResults(ctx, req)
	case cmdRoster:
		err = b.handleRoster(ctx, req)
	case cmdProfile:
		err = b.handleProfile(ctx, req)
	case cmdLeave:
		b.askLeave(ctx, req)
	case cmdPoll:
		err = b.handlePoll(ctx, req)
	case cmdInvite:
		err = b.handleInvite(ctx, req)
	case cmdSetRole:
		err = b.handleSetRole(ctx, req)
	case cmdResult:
		err = b.handleResult(ctx, req)
	default:
		if req.private() {
			b.reply(ctx, req, helpText(), true)
		}
	}
	if err != nil {
		b.replyError(ctx, req, err)
	}
}

// resolveTeam ищет команду по чату, а в личном чате - по первому членству пользователя.
func (b *Bot) resolveTeam(ctx context.Context, req *request) (*models.Team, error) {
	team, err := b.svc.Teams.ResolveByChat(ctx, req.chatID)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, services.ErrTeamNotFound) {
		return nil, err
	}
	if !req.private() {
		return nil, nil
	}

	member, err := b.svc.Members.FirstMembership(ctx, req.user.ID)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			return nil, nil
		}
		return nil, err
	}
	team, err = b.svc.Teams.Get(ctx, member.TeamID)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return team, nil
}

func (b *Bot) handleStart(ctx context.Context, req *request) {
	if code := strings.TrimSpace(req.args); code != "" {
		result, err := b.svc.Invitations.Redeem(ctx, code, req.user)
		if err != nil {
			if errors.Is(err, services.ErrInvitationNotFound) || errors.Is(err, services.ErrInvitationExpired) {
				b.reply(ctx, req, replyBadInvite, false)
				return
			}
			b.replyError(ctx, req, err)
			return
		}
		req.team = result.Team
		b.reply(ctx, req, fmt.Sprintf("Вы добавлены в команду «%s». Роль: %s.",
			result.Team.Name, services.RoleLabel(result.Role)), true)
		return
	}

	team, err := b.resolveTeam(ctx, req)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if team != nil {
		req.team = team
		b.reply(ctx, req, fmt.Sprintf("Команда «%s». Выберите действие в меню.", team.Name), true)
		return
	}

	canCreate, err := b.svc.Settings.CanCreateTeamWithoutInvite(ctx, req.user.ID, req.user.Username)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if canCreate {
		b.reply(ctx, req, "Команда для этого чата не создана. Создайте её: /createteam Название", false)
		return
	}
	b.reply(ctx, req, "Чтобы начать, перейдите по ссылке-приглашению от капитана команды.", false)
}

func (b *Bot) handleCreateTeam(ctx context.Context, req *request) {
	canCreate, err := b.svc.Settings.CanCreateTeamWithoutInvite(ctx, req.user.ID, req.user.Username)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if !canCreate {
		b.reply(ctx, req, replyOnlySysAdmin, false)
		return
	}

	creator := req.user
	team, err := b.svc.Teams.Create(ctx, req.args, req.chatID, &creator)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	req.team = team
	b.reply(ctx, req, fmt.Sprintf("Команда «%s» создана и привязана к этому чату. Вы администратор.", team.Name), true)
}

func (b *Bot) handleSchedule(ctx context.Context, req *request) error {
	matches, err := b.svc.Matches.Upcoming(ctx, req.team.ID, 10)
	if err != nil {
		return err
	}
	b.reply(ctx, req, scheduleText(matches, b.location), false)
	return nil
}

func (b *Bot) handleResults(ctx context.Context, req *request) error {
	matches, err := b.svc.Matches.Past(ctx, req.team.ID, 10)
	if err != nil {
		return err
	}
	b.reply(ctx, req, resultsText(matches, b.location), false)
	return nil
}

func (b *Bot) handleRoster(ctx context.Context, req *request) error {
	members, err := b.svc.Members.List(ctx, req.team.ID)
	if err != nil {
		return err
	}
	b.reply(ctx, req, rosterText(members), false)
	return nil
}

func (b *Bot) handleProfile(ctx context.Context, req *request) error {
	member, err := b.svc.Members.Get(ctx, req.team.ID, req.user.ID)
	if err != nil && !errors.Is(err, services.ErrMemberNotFound) {
		return err
	}
	b.reply(ctx, req, profileText(member, req.user.DisplayName), false)
	return nil
}

func (b *Bot) askLeave(ctx context.Context, req *request) {
	b.mu.Lock()
	b.pendingLeave[leaveKey{chatID: req.msg.Chat.ID, userID: req.msg.From.ID}] = req.team.ID
	b.mu.Unlock()
	b.reply(ctx, req, fmt.Sprintf("Выйти из команды «%s»? Ответьте %s для подтверждения.", req.team.Name, leaveConfirmation), false)
}

func (b *Bot) hasPendingLeave(chatID, userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pendingLeave[leaveKey{chatID: chatID, userID: userID}]
	return ok
}

// confirmLeave завершает запрос на выход: любой ответ кроме ДА отменяет его.
func (b *Bot) confirmLeave(ctx context.Context, req *request) {
	key := leaveKey{chatID: req.msg.Chat.ID, userID: req.msg.From.ID}
	b.mu.Lock()
	teamID := b.pendingLeave[key]
	delete(b.pendingLeave, key)
	b.mu.Unlock()

	defer func() { req.team = nil }()
	req.team = &models.Team{ID: teamID}
	if !strings.EqualFold(strings.TrimSpace(req.msg.Text), leaveConfirmation) {
		b.reply(ctx, req, "Выход отменён.", false)
		return
	}
	if err := b.svc.Members.Leave(ctx, teamID, req.user.ID); err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.reply(ctx, req, "Вы вышли из команды.", false)
}

func (b *Bot) handlePoll(ctx context.Context, req *request) error {
	question, options := parsePollArgs(req.args)
	target := req.team.NotificationChatID()
	if target == "" {
		target = req.chatID
	}

	err := b.client.SendPoll(ctx, models.OutgoingPoll{
		ChatID:   target,
		Question: question,
		Options:  options,
	}, services.DeliveryMeta{Type: models.EventPoll, TeamID: req.teamID()})
	if err != nil {
		return err
	}
	if target != req.chatID {
		b.reply(ctx, req, "Опрос отправлен в чат команды.", false)
	}
	return nil
}

func (b *Bot) handleInvite(ctx context.Context, req *request) error {
	if err := b.svc.Members.RequireAtLeast(ctx, req.team.ID, req.user.ID, models.RoleCaptain); err != nil {
		return err
	}
	invitation, err := b.svc.Invitations.Create(ctx, req.team.ID, models.RolePlayer, 0)
	if err != nil {
		return err
	}

	link := b.svc.Invitations.BuildInviteLink(invitation.Code)
	b.reply(ctx, req, fmt.Sprintf("Приглашение в команду «%s»:\n%s\nДействует до %s.",
		req.team.Name, link, services.FormatMatchDate(invitation.ExpiresAt, b.location)), false)

	png, _, err := b.svc.Invitations.QRCode(ctx, req.team.ID, invitation.Code)
	if err != nil {
		return err
	}
	return b.client.SendPhoto(ctx, models.OutgoingPhoto{
		ChatID:   req.chatID,
		FileName: "invite.png",
		Data:     png,
		Caption:  "QR-код приглашения",
	}, services.DeliveryMeta{Type: models.EventInviteQR, TeamID: req.teamID()})
}

func (b *Bot) handleSetRole(ctx context.Context, req *request) error {
	if err := b.svc.Members.RequireAtLeast(ctx, req.team.ID, req.user.ID, models.RoleAdmin); err != nil {
		return err
	}
	fields := strings.Fields(req.args)
	if len(fields) != 2 {
		b.reply(ctx, req, "Использование: /setrole <telegram id> <PLAYER|CAPTAIN|ADMIN>", false)
		return nil
	}
	role, ok := models.ParseRole(fields[1])
	if !ok {
		return services.ErrInvalidRole
	}
	member, err := b.svc.Members.SetRole(ctx, req.team.ID, fields[0], role)
	if err != nil {
		return err
	}
	b.reply(ctx, req, fmt.Sprintf("Роль %s: %s.", member.Name(), services.RoleLabel(role)), false)
	return nil
}

func (b *Bot) handleResult(ctx context.Context, req *request) error {
	if err := b.svc.Members.RequireAtLeast(ctx, req.team.ID, req.user.ID, models.RoleCaptain); err != nil {
		return err
	}
	our, their, err := parseScore(req.args)
	if err != nil {
		return err
	}
	pending, err := b.svc.Matches.PendingResult(ctx, req.team.ID)
	if err != nil {
		return err
	}
	match, err := b.svc.Matches.SetResult(ctx, req.team.ID, pending.ID, our, their)
	if err != nil {
		return err
	}
	b.reply(ctx, req, fmt.Sprintf("Результат сохранён: %s %d:%d.", match.Opponent, our, their), false)
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	matchID, status, ok := services.ParseAttendCallback(cb.Data)
	if !ok {
		b.client.AnswerCallback(ctx, cb.ID, "Команда недоступна. Управление - в админке.", true)
		return
	}

	userID := strconv.FormatInt(cb.From.ID, 10)
	match, err := b.svc.Matches.GetByID(ctx, matchID)
	if err != nil {
		b.client.AnswerCallback(ctx, cb.ID, errorReply(err), true)
		return
	}
	allowed, err := b.svc.Members.CanUseBot(ctx, match.TeamID, userID)
	if err != nil {
		b.client.AnswerCallback(ctx, cb.ID, errorReply(err), true)
		return
	}
	if !allowed {
		b.client.AnswerCallback(ctx, cb.ID, replyDeactivated, true)
		return
	}

	if _, err := b.svc.Attendance.Record(ctx, matchID, userID, status); err != nil {
		b.client.AnswerCallback(ctx, cb.ID, errorReply(err), true)
		return
	}
	b.client.AnswerCallback(ctx, cb.ID, "Вы выбрали: "+status.Label(), false)
}

func (b *Bot) reply(ctx context.Context, req *request, text string, withMenu bool) {
	msg := models.OutgoingMessage{ChatID: req.chatID, Text: text}
	if withMenu && req.private() {
		msg.Keyboard = mainMenu()
	}
	// Ошибка уже записана клиентом в журнал интеграций.
	_ = b.client.SendMessage(ctx, msg, services.DeliveryMeta{Type: models.EventBotMessage, TeamID: req.teamID()})
}

func (b *Bot) replyError(ctx context.Context, req *request, err error) {
	var roleErr *services.RoleError
	if !errors.As(err, &roleErr) && !isExpected(err) {
		b.logger.ErrorContext(ctx, "telegram command failed",
			slog.String("command", req.command),
			slog.String("chat_id", req.chatID),
			slog.String("user_id", req.user.ID),
			slog.Any("error", err),
		)
	}
	b.reply(ctx, req, errorReply(err), false)
}

func isExpected(err error) bool {
	for _, target := range []error{
		services.ErrTeamNotFound, services.ErrMatchNotFound, services.ErrMemberNotFound,
		services.ErrInvalidScore, services.ErrInvalidRole, services.ErrMatchNotScheduled,
		services.ErrTeamChatConflict, services.ErrTeamNameRequired, services.ErrValidationFailed,
		services.ErrInvitationNotFound, services.ErrInvitationExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
