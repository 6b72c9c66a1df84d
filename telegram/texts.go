package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
)

// Кнопки основной клавиатуры.
const (
	btnSchedule = "Расписание"
	btnResults  = "Прошедшие игры"
	btnRoster   = "Состав"
	btnProfile  = "Мой профиль"
	btnLeave    = "Выйти из команды"
	btnPoll     = "Опрос на игру"
	btnInvite   = "Приглашение"
)

const (
	cmdStart      = "start"
	cmdHelp       = "help"
	cmdSchedule   = "schedule"
	cmdResults    = "results"
	cmdRoster     = "roster"
	cmdProfile    = "profile"
	cmdLeave      = "leave"
	cmdPoll       = "poll"
	cmdInvite     = "invite"
	cmdSetRole    = "setrole"
	cmdResult     = "result"
	cmdCreateTeam = "createteam"
)

const (
	defaultPollQuestion = "Кто едет на игру?"
	pollQuestionMaxLen  = 255
	pollOptionMaxLen    = 100
	pollMaxOptions      = 10
	leaveConfirmation   = "ДА"

	replyDeactivated  = "Вы деактивированы в команде. Обратитесь к капитану."
	replyNoTeam       = "Команда не найдена. Вступите по ссылке-приглашению от капитана."
	replyOnlySysAdmin = "Создать команду может только администратор. Попросите ссылку-приглашение у капитана команды."
	replyBadInvite    = "Приглашение недействительно или срок его действия истёк."
)

var defaultPollOptions = []string{"Еду", "Не еду", "Опоздаю"}

var buttonCommands = map[string]string{
	btnSchedule: cmdSchedule,
	btnResults:  cmdResults,
	btnRoster:   cmdRoster,
	btnProfile:  cmdProfile,
	btnLeave:    cmdLeave,
	btnPoll:     cmdPoll,
	btnInvite:   cmdInvite,
}

func mainMenu() [][]string {
	return [][]string{
		{btnSchedule, btnResults},
		{btnRoster, btnProfile},
		{btnPoll, btnInvite},
		{btnLeave},
	}
}

// parseCommand возвращает команду без "/" и суффикса @bot и ее аргументы.
// Текст кнопки меню превращается в соответствующую команду.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if cmd, ok := buttonCommands[text]; ok {
		return cmd, ""
	}
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	name, args, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// parsePollArgs разбирает "вопрос | вариант | вариант". Без вариантов используются стандартные.
func parsePollArgs(args string) (string, []string) {
	parts := strings.Split(args, "|")
	question := truncate(strings.TrimSpace(parts[0]), pollQuestionMaxLen)
	if question == "" {
		question = defaultPollQuestion
	}

	options := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		options = append(options, truncate(p, pollOptionMaxLen))
		if len(options) == pollMaxOptions {
			break
		}
	}
	if len(options) < 2 {
		options = append([]string(nil), defaultPollOptions...)
	}
	return question, options
}

// parseScore разбирает счет вида "80:75".
func parseScore(s string) (int, int, error) {
	ourText, theirText, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, services.ErrInvalidScore
	}
	our, err := strconv.Atoi(strings.TrimSpace(ourText))
	if err != nil || our < 0 {
		return 0, 0, services.ErrInvalidScore
	}
	their, err := strconv.Atoi(strings.TrimSpace(theirText))
	if err != nil || their < 0 {
		return 0, 0, services.ErrInvalidScore
	}
	return our, their, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func helpText() string {
	return strings.Join([]string{
		"Команды бота:",
		"/schedule - расписание игр",
		"/results - прошедшие игры",
		"/roster - состав команды",
		"/profile - мой профиль",
		"/poll вопрос | вариант | вариант - опрос в чат команды",
		"/invite - ссылка-приглашение и QR (капитан)",
		"/result 80:75 - результат последней игры (капитан)",
		"/setrole <id> <PLAYER|CAPTAIN|ADMIN> - роль участника (админ)",
		"/leave - выйти из команды",
	}, "\n")
}

func matchLine(m *models.Match, loc *time.Location) string {
	var icon string
	switch m.Status {
	case models.MatchStatusCompleted:
		icon = "✅"
	case models.MatchStatusCancelled:
		icon = "❌"
	default:
		icon = "⏳"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s — %s", icon, services.FormatMatchDate(m.Date, loc), m.Opponent)
	if m.Status == models.MatchStatusCompleted && m.HasResult() {
		fmt.Fprintf(&b, " (%d:%d)", *m.OurScore, *m.OpponentScore)
	}
	if m.Location != nil && strings.TrimSpace(*m.Location) != "" {
		fmt.Fprintf(&b, ", %s", strings.TrimSpace(*m.Location))
	}
	return b.String()
}

func scheduleText(matches []*models.Match, loc *time.Location) string {
	if len(matches) == 0 {
		return "Ближайших игр нет."
	}
	lines := []string{"Расписание игр:", ""}
	for _, m := range matches {
		lines = append(lines, matchLine(m, loc))
	}
	return strings.Join(lines, "\n")
}

func resultsText(matches []*models.Match, loc *time.Location) string {
	if len(matches) == 0 {
		return "Прошедших игр пока нет."
	}
	lines := []string{"Прошедшие игры:", ""}
	for _, m := range matches {
		lines = append(lines, matchLine(m, loc))
	}
	return strings.Join(lines, "\n")
}

func rosterText(members []*models.TeamMember) string {
	lines := []string{"Состав команды:", ""}
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		name := m.Name()
		status := models.PlayerStatusActive
		var number *int
		if p := m.Player; p != nil {
			if !p.IsActive {
				continue
			}
			if strings.TrimSpace(p.Name) != "" {
				name = p.Name
			}
			number = p.Number
			status = p.Status
		}

		line := "• " + name
		if number != nil {
			line += fmt.Sprintf(" №%d", *number)
		}
		lines = append(lines, line+" — "+status.Label())
	}
	if len(lines) == 2 {
		return "Состав пуст. Участники добавляются по приглашениям."
	}
	return strings.Join(lines, "\n")
}

func profileText(member *models.TeamMember, fallbackName string) string {
	name, number, debt := fallbackName, "—", "нет"
	if member != nil {
		name = member.Name()
		if p := member.Player; p != nil {
			if member.DisplayName == nil && strings.TrimSpace(p.Name) != "" {
				name = p.Name
			}
			if p.Number != nil {
				number = strconv.Itoa(*p.Number)
			}
			if p.HasDebt() {
				debt = services.FormatMoney(p.Debt) + " ₽"
			}
		}
	}
	if strings.TrimSpace(name) == "" {
		name = "—"
	}
	return fmt.Sprintf("Мой профиль:\nИмя: %s\nНомер: %s\nДолг: %s", name, number, debt)
}

// errorReply переводит ошибку сервиса в короткий ответ пользователю.
func errorReply(err error) string {
	var roleErr *services.RoleError
	switch {
	case errors.As(err, &roleErr):
		if roleErr.Required == models.RoleAdmin {
			return "Только админ может выполнить это действие."
		}
		return "Это действие доступно капитану или админу."
	case errors.Is(err, services.ErrMemberInactive):
		return replyDeactivated
	case errors.Is(err, services.ErrTeamNotFound):
		return replyNoTeam
	case errors.Is(err, services.ErrMatchNotFound):
		return "Матч не найден."
	case errors.Is(err, services.ErrMatchNotScheduled):
		return "Матч уже завершён или отменён."
	case errors.Is(err, services.ErrMemberNotFound):
		return "Участник не найден."
	case errors.Is(err, services.ErrInvitationNotFound), errors.Is(err, services.ErrInvitationExpired):
		return replyBadInvite
	case errors.Is(err, services.ErrInvalidScore):
		return "Укажите счёт в формате /result 80:75."
	case errors.Is(err, services.ErrInvalidRole):
		return "Роль должна быть PLAYER, CAPTAIN или ADMIN."
	case errors.Is(err, services.ErrTeamChatConflict):
		return "Этот чат уже привязан к команде."
	case errors.Is(err, services.ErrTeamNameRequired):
		return "Укажите название: /createteam БК Метеор"
	case errors.Is(err, services.ErrChatNotConfigured):
		return "Чат команды не настроен. Укажите его в админке в разделе Настройки."
	case errors.Is(err, services.ErrValidationFailed):
		return "Некорректные данные."
	}
	return "Что-то пошло не так. Попробуйте позже."
}
