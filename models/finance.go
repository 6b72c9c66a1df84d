package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FinanceEntryType string

const (
	FinanceIncome  FinanceEntryType = "INCOME"
	FinanceExpense FinanceEntryType = "EXPENSE"
)

type FinanceEntry struct {
	ID          int              `json:"id" db:"id"`
	TeamID      int              `json:"team_id" db:"team_id"`
	Type        FinanceEntryType `json:"type" db:"entry_type"`
	Amount      decimal.Decimal  `json:"amount" db:"amount"`
	Description *string          `json:"description,omitempty" db:"description"`
	EntryDate   time.Time        `json:"entry_date" db:"entry_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

type FinanceReport struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Entries []*FinanceEntry `json:"entries"`
}
