package services

import (
	"context"
	"testing"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinanceRepo struct {
	entries  []*models.FinanceEntry
	from, to time.Time
}

func (r *fakeFinanceRepo) Create(_ context.Context, e *models.FinanceEntry) error {
	e.ID = len(r.entries) + 1
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeFinanceRepo) ListByTeam(_ context.Context, teamID int) ([]*models.FinanceEntry, error) {
	out := []*models.FinanceEntry{}
	for _, e := range r.entries {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeFinanceRepo) ListByTeamBetween(_ context.Context, teamID int, from, to time.Time) ([]*models.FinanceEntry, error) {
	r.from, r.to = from, to
	out := []*models.FinanceEntry{}
	for _, e := range r.entries {
		if e.TeamID == teamID && !e.EntryDate.Before(from) && !e.EntryDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeFinanceRepo) Totals(ctx context.Context, teamID int, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	entries, _ := r.ListByTeamBetween(ctx, teamID, from, to)
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Type == models.FinanceIncome {
			income = income.Add(e.Amount)
		} else {
			expense = expense.Add(e.Amount)
		}
	}
	return income, expense, nil
}

func (r *fakeFinanceRepo) DeleteByTeam(_ context.Context, teamID, id int) error {
	for i, e := range r.entries {
		if e.ID == id && e.TeamID == teamID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrFinanceEntryNotFound
}

func newFinanceFixture() (*financeService, *fakeFinanceRepo) {
	repo := &fakeFinanceRepo{}
	svc := NewFinanceService(repo, time.UTC).(*financeService)
	svc.now = func() time.Time { return time.Date(2025, 3, 18, 21, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestFinanceCreate(t *testing.T) {
	svc, _ := newFinanceFixture()
	ctx := context.Background()

	entry, err := svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.NewFromInt(3000), Description: ptr("  взносы ")})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC), entry.EntryDate)
	assert.Equal(t, "взносы", *entry.Description)

	entry, err = svc.Create(ctx, 1, FinanceInput{Type: models.FinanceExpense, Amount: decimal.NewFromInt(1500), EntryDate: "2025-03-02"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), entry.EntryDate)

	_, err = svc.Create(ctx, 1, FinanceInput{Type: "GIFT", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.NewFromInt(1), EntryDate: "18.03.2025"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestFinanceReportDefaultsToCurrentMonth(t *testing.T) {
	svc, repo := newFinanceFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.NewFromInt(3000), EntryDate: "2025-03-05"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, FinanceInput{Type: models.FinanceExpense, Amount: decimal.RequireFromString("1200.50"), EntryDate: "2025-03-10"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.NewFromInt(999), EntryDate: "2025-02-27"})
	require.NoError(t, err)

	report, err := svc.Report(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", report.From)
	assert.Equal(t, "2025-03-18", report.To)
	assert.True(t, report.Income.Equal(decimal.NewFromInt(3000)))
	assert.True(t, report.Expense.Equal(decimal.RequireFromString("1200.50")))
	assert.True(t, report.Balance.Equal(decimal.RequireFromString("1799.50")))
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.from)
}

func TestFinanceReportSwapsReversedRange(t *testing.T) {
	svc, _ := newFinanceFixture()

	from := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Report(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", report.From)
	assert.Equal(t, "2025-03-31", report.To)
	assert.True(t, report.Balance.IsZero())
}

func TestFinanceDelete(t *testing.T) {
	svc, _ := newFinanceFixture()
	ctx := context.Background()

	entry, err := svc.Create(ctx, 1, FinanceInput{Type: models.FinanceIncome, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 2, entry.ID), ErrFinanceEntryNotFound)
	require.NoError(t, svc.Delete(ctx, 1, entry.ID))
}
