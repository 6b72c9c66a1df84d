package models

import "github.com/shopspring/decimal"

type DashboardStats struct {
	Team        *Team           `json:"team"`
	PlayerCount int             `json:"player_count"`
	DebtorCount int             `json:"debtor_count"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
	NextMatch   *Match          `json:"next_match"`
}
