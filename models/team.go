package models

import (
	"strings"
	"time"
)

type Team struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	TelegramChatID *string   `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	GroupChatID    *string   `json:"group_chat_id,omitempty" db:"group_chat_id"`
	ChannelChatID  *string   `json:"channel_chat_id,omitempty" db:"channel_chat_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// NotificationChatID возвращает чат для уведомлений команды: группа (если задана), иначе основной чат.
func (t *Team) NotificationChatID() string {
	if t == nil {
		return ""
	}
	if t.GroupChatID != nil && strings.TrimSpace(*t.GroupChatID) != "" {
		return NormalizeGroupChatID(*t.GroupChatID)
	}
	if t.TelegramChatID != nil {
		return strings.TrimSpace(*t.TelegramChatID)
	}
	return ""
}

// ChannelID возвращает нормализованный id канала команды или пустую строку.
func (t *Team) ChannelID() string {
	if t == nil || t.ChannelChatID == nil {
		return ""
	}
	return NormalizeGroupChatID(*t.ChannelChatID)
}
