package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/shopspring/decimal"
)

const (
	// Лимит Telegram - 4096 символов, оставляем запас.
	maxDigestLength = 4000

	AttendCallbackPrefix = "attend"
)

// AttendCallbackData формирует callback кнопки ответа на приглашение на матч.
func AttendCallbackData(matchID int, status models.AttendanceStatus) string {
	return fmt.Sprintf("%s:%d:%s", AttendCallbackPrefix, matchID, status)
}

// ParseAttendCallback разбирает данные вида attend:{matchID}:{STATUS}.
func ParseAttendCallback(data string) (int, models.AttendanceStatus, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != AttendCallbackPrefix {
		return 0, "", false
	}
	matchID, err := strconv.Atoi(parts[1])
	if err != nil || matchID <= 0 {
		return 0, "", false
	}
	status, ok := models.ParseAttendanceStatus(parts[2])
	if !ok {
		return 0, "", false
	}
	return matchID, status, true
}

func FormatMatchDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02.01 15:04")
}

func FormatMatchClock(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04")
}

func FormatMoney(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

func attendanceButtons(matchID int) [][]models.InlineButton {
	return [][]models.InlineButton{{
		{Text: "🟢 Буду", Data: AttendCallbackData(matchID, models.AttendanceComing)},
		{Text: "🟡 Опоздаю", Data: AttendCallbackData(matchID, models.AttendanceLate)},
		{Text: "🔴 Не смогу", Data: AttendCallbackData(matchID, models.AttendanceNotComing)},
	}}
}

func reminder24hText(m *models.Match, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("[НОВОЕ СОБЫТИЕ]\n")
	fmt.Fprintf(&b, "🏀 Игра vs %s\n", m.Opponent)
	fmt.Fprintf(&b, "📅 %s", FormatMatchDate(m.Date, loc))
	if place := derefString(m.Location); place != "" {
		fmt.Fprintf(&b, "\n🏟️ %s", place)
	}
	b.WriteString("\n\nПодтвердите участие:")
	return b.String()
}

func reminderStatsText(m *models.Match, counts models.AttendanceCounts, loc *time.Location) string {
	return fmt.Sprintf(
		"📊 Сбор на игру vs %s (%s):\n🟢 Будут: %d\n🟡 Опоздают: %d\n🔴 Не смогут: %d\n⚪ Не ответили: %d",
		m.Opponent, FormatMatchDate(m.Date, loc),
		counts.Coming, counts.Late, counts.NotComing, counts.NoResponse,
	)
}

func reminder3hText(m *models.Match, loc *time.Location) string {
	return fmt.Sprintf("⏰ Через ~3 часа матч с «%s» (%s). Удачи!", m.Opponent, FormatMatchClock(m.Date, loc))
}

func reminderAfterText(m *models.Match) string {
	return fmt.Sprintf("Матч с «%s» прошёл. Введите результат и статистику: /result", m.Opponent)
}

// DebtDigestText формирует сводку должников. Текст обрезается до лимита сообщения.
func DebtDigestText(debtors []*models.Player) string {
	var b strings.Builder
	b.WriteString("💰 Напоминание: кто не оплатил взносы?\n")
	for _, p := range debtors {
		b.WriteString("\n• ")
		b.WriteString(p.Name)
		if p.Number != nil {
			fmt.Fprintf(&b, " №%d", *p.Number)
		}
		fmt.Fprintf(&b, " — %s ₽", FormatMoney(p.Debt))
	}
	return truncateRunes(b.String(), maxDigestLength)
}

// MatchPostText - текст поста с результатом матча.
func MatchPostText(m *models.Match) string {
	if !m.HasResult() {
		return fmt.Sprintf("Матч с %s: результат еще не внесен.", m.Opponent)
	}
	our, their := *m.OurScore, *m.OpponentScore
	switch {
	case our > their:
		return fmt.Sprintf("Победа над %s со счётом %d:%d!", m.Opponent, our, their)
	case our < their:
		return fmt.Sprintf("Поражение от %s — %d:%d.", m.Opponent, our, their)
	default:
		return fmt.Sprintf("Ничья с %s — %d:%d.", m.Opponent, our, their)
	}
}

func eventAnnouncementText(e *models.Event, loc *time.Location) string {
	var b strings.Builder
	switch e.Type {
	case models.EventTypeTraining:
		b.WriteString("🏋️ Тренировка")
	case models.EventTypeMeeting:
		b.WriteString("🤝 Собрание")
	default:
		b.WriteString("📌 Событие")
	}
	fmt.Fprintf(&b, ": %s\n📅 %s", e.Title, FormatMatchDate(e.EventDate, loc))
	if l := derefString(e.Location); l != "" {
		fmt.Fprintf(&b, "\n🏟️ %s", l)
	}
	if d := derefString(e.Description); d != "" {
		fmt.Fprintf(&b, "\n\n%s", d)
	}
	return b.String()
}
