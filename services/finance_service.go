package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type FinanceInput struct {
	Type        models.FinanceEntryType `json:"type"`
	Amount      decimal.Decimal         `json:"amount"`
	Description *string                 `json:"description"`
	// EntryDate в формате YYYY-MM-DD; пустая строка - сегодня.
	EntryDate string `json:"entry_date"`
}

type FinanceService interface {
	List(ctx context.Context, teamID int) ([]*models.FinanceEntry, error)
	Create(ctx context.Context, teamID int, in FinanceInput) (*models.FinanceEntry, error)
	Delete(ctx context.Context, teamID, id int) error
	// Report считает доходы и расходы за период. Нулевые границы - с начала месяца по сегодня.
	Report(ctx context.Context, teamID int, from, to time.Time) (*models.FinanceReport, error)
}

type financeService struct {
	financeRepo repositories.FinanceRepository
	location    *time.Location
	now         func() time.Time
}

func NewFinanceService(financeRepo repositories.FinanceRepository, location *time.Location) FinanceService {
	if location == nil {
		location = time.UTC
	}
	return &financeService{financeRepo: financeRepo, location: location, now: time.Now}
}

func (s *financeService) today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// ParseDate разбирает дату YYYY-MM-DD в часовом поясе loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidationFailed, value)
	}
	return t, nil
}

func (s *financeService) List(ctx context.Context, teamID int) ([]*models.FinanceEntry, error) {
	return s.financeRepo.ListByTeam(ctx, teamID)
}

func (s *financeService) Create(ctx context.Context, teamID int, in FinanceInput) (*models.FinanceEntry, error) {
	if in.Type != models.FinanceIncome && in.Type != models.FinanceExpense {
		return nil, fmt.Errorf("%w: type must be INCOME or EXPENSE", ErrValidationFailed)
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	date := s.today()
	if in.EntryDate != "" {
		parsed, err := ParseDate(in.EntryDate, s.location)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	entry := &models.FinanceEntry{
		TeamID:      teamID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: optionalString(derefString(in.Description)),
		EntryDate:   date,
	}
	if err := s.financeRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *financeService) Delete(ctx context.Context, teamID, id int) error {
	err := s.financeRepo.DeleteByTeam(ctx, teamID, id)
	if errors.Is(err, repositories.ErrFinanceEntryNotFound) {
		return ErrFinanceEntryNotFound
	}
	return err
}

func (s *financeService) Report(ctx context.Context, teamID int, from, to time.Time) (*models.FinanceReport, error) {
	today := s.today()
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.location)
	}
	if from.After(to) {
		from, to = to, from
	}

	entries, err := s.financeRepo.ListByTeamBetween(ctx, teamID, from, to)
	if err != nil {
		return nil, err
	}
	income, expense, err := s.financeRepo.Totals(ctx, teamID, from, to)
	if err != nil {
		return nil, err
	}

	return &models.FinanceReport{
		From:    from.Format(dateLayout),
		To:      to.Format(dateLayout),
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
		Entries: entries,
	}, nil
}
