package models

import (
	"strings"
	"time"
)

// Role - роль участника команды. Роли упорядочены по рангу.
type Role string

const (
	RolePlayer  Role = "PLAYER"
	RoleCaptain Role = "CAPTAIN"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Rank() int {
	switch r {
	case RolePlayer:
		return 1
	case RoleCaptain:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// AtLeast сообщает, достаточно ли роли r для действия, требующего required.
// Пустая required трактуется как PLAYER.
func (r Role) AtLeast(required Role) bool {
	if required == "" {
		required = RolePlayer
	}
	return r.Rank() >= required.Rank()
}

func (r Role) IsValid() bool {
	return r.Rank() > 0
}

func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

type TeamMember struct {
	ID               int       `json:"id" db:"id"`
	TeamID           int       `json:"team_id" db:"team_id"`
	TelegramUserID   string    `json:"telegram_user_id" db:"telegram_user_id"`
	TelegramUsername *string   `json:"telegram_username,omitempty" db:"telegram_username"`
	DisplayName      *string   `json:"display_name,omitempty" db:"display_name"`
	Role             Role      `json:"role" db:"role"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// Name возвращает имя для показа: отображаемое имя, @username или id.
func (m *TeamMember) Name() string {
	if m.DisplayName != nil && strings.TrimSpace(*m.DisplayName) != "" {
		return *m.DisplayName
	}
	if m.TelegramUsername != nil && *m.TelegramUsername != "" {
		return "@" + *m.TelegramUsername
	}
	return m.TelegramUserID
}
