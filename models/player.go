package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlayerStatus string

const (
	PlayerStatusActive   PlayerStatus = "ACTIVE"
	PlayerStatusInjury   PlayerStatus = "INJURY"
	PlayerStatusVacation PlayerStatus = "VACATION"
	PlayerStatusNotPaid  PlayerStatus = "NOT_PAID"
)

func (s PlayerStatus) IsValid() bool {
	switch s {
	case PlayerStatusActive, PlayerStatusInjury, PlayerStatusVacation, PlayerStatusNotPaid:
		return true
	}
	return false
}

func (s PlayerStatus) Label() string {
	switch s {
	case PlayerStatusInjury:
		return "травма"
	case PlayerStatusVacation:
		return "отпуск"
	case PlayerStatusNotPaid:
		return "не оплачено"
	default:
		return "в строю"
	}
}

type Player struct {
	ID         int             `json:"id" db:"id"`
	TeamID     int             `json:"team_id" db:"team_id"`
	Name       string          `json:"name" db:"name"`
	Number     *int            `json:"number,omitempty" db:"number"`
	TelegramID *string         `json:"telegram_id,omitempty" db:"telegram_id"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	Status     PlayerStatus    `json:"status" db:"status"`
	Debt       decimal.Decimal `json:"debt" db:"debt"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}

func (p *Player) HasDebt() bool {
	return p.Debt.IsPositive()
}
