package models

import "time"

type IntegrationEventType string

const (
	EventBotMessage         IntegrationEventType = "BOT_MESSAGE"
	EventReminder24h        IntegrationEventType = "REMINDER_24H"
	EventReminder3h         IntegrationEventType = "REMINDER_3H"
	EventReminderStats      IntegrationEventType = "REMINDER_STATS"
	EventReminderAfterMatch IntegrationEventType = "REMINDER_AFTER_MATCH"
	EventDebtReminder       IntegrationEventType = "DEBT_REMINDER"
	EventInviteQR           IntegrationEventType = "INVITE_QR"
	EventPoll               IntegrationEventType = "POLL"
	EventChannelPost        IntegrationEventType = "CHANNEL_POST"
)

// IntegrationEventTypes перечисляет все типы в порядке вывода статистики.
var IntegrationEventTypes = []IntegrationEventType{
	EventBotMessage,
	EventReminder24h,
	EventReminder3h,
	EventReminderStats,
	EventReminderAfterMatch,
	EventDebtReminder,
	EventInviteQR,
	EventPoll,
	EventChannelPost,
}

func (t IntegrationEventType) Label() string {
	switch t {
	case EventBotMessage:
		return "Сообщение бота"
	case EventReminder24h:
		return "Напоминание за 24 ч"
	case EventReminder3h:
		return "Напоминание за 3 ч"
	case EventReminderStats:
		return "Сводка по явке"
	case EventReminderAfterMatch:
		return "Напоминание о результате"
	case EventDebtReminder:
		return "Напоминание о долгах"
	case EventInviteQR:
		return "QR приглашения"
	case EventPoll:
		return "Опрос"
	case EventChannelPost:
		return "Пост в канал"
	}
	return string(t)
}

// IntegrationEvent - запись о попытке отправки во внешний мессенджер. Таблица только дополняется.
type IntegrationEvent struct {
	ID           int64                `json:"id" db:"id"`
	EventType    IntegrationEventType `json:"event_type" db:"event_type"`
	TargetChatID *string              `json:"target_chat_id,omitempty" db:"target_chat_id"`
	Success      bool                 `json:"success" db:"success"`
	ErrorMessage *string              `json:"error_message,omitempty" db:"error_message"`
	TeamID       *int                 `json:"team_id,omitempty" db:"team_id"`
	MatchID      *int                 `json:"match_id,omitempty" db:"match_id"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
}

type IntegrationTypeStats struct {
	Type    IntegrationEventType `json:"type"`
	Label   string               `json:"label"`
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
}

type IntegrationStats struct {
	From    time.Time              `json:"from"`
	To      time.Time              `json:"to"`
	Total   int                    `json:"total"`
	Success int                    `json:"success"`
	Failed  int                    `json:"failed"`
	ByType  []IntegrationTypeStats `json:"by_type"`
}
