package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/shopspring/decimal"
)

var ErrFinanceEntryNotFound = errors.New("finance entry not found")

type FinanceRepository interface {
	Create(ctx context.Context, entry *models.FinanceEntry) error
	ListByTeam(ctx context.Context, teamID int) ([]*models.FinanceEntry, error)
	ListByTeamBetween(ctx context.Context, teamID int, from, to time.Time) ([]*models.FinanceEntry, error)
	// Totals возвращает сумму доходов и расходов за период (даты включительно).
	Totals(ctx context.Context, teamID int, from, to time.Time) (income, expense decimal.Decimal, err error)
	DeleteByTeam(ctx context.Context, teamID, id int) error
}

type postgresFinanceRepository struct {
	db *sql.DB
}

func NewPostgresFinanceRepository(db *sql.DB) FinanceRepository {
	return &postgresFinanceRepository{db: db}
}

const financeColumns = `id, team_id, entry_type, amount, description, entry_date, created_at`

func (r *postgresFinanceRepository) Create(ctx context.Context, entry *models.FinanceEntry) error {
	query := `
		INSERT INTO finance_entries (team_id, entry_type, amount, description, entry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.TeamID,
		entry.Type,
		entry.Amount,
		entry.Description,
		entry.EntryDate,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create finance entry: %w", err)
	}
	return nil
}

func (r *postgresFinanceRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.FinanceEntry, error) {
	query := `SELECT ` + financeColumns + ` FROM finance_entries WHERE team_id = $1 ORDER BY entry_date DESC, id DESC`
	return r.list(ctx, query, teamID)
}

func (r *postgresFinanceRepository) ListByTeamBetween(ctx context.Context, teamID int, from, to time.Time) ([]*models.FinanceEntry, error) {
	query := `
		SELECT ` + financeColumns + `
		FROM finance_entries
		WHERE team_id = $1 AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date DESC, id DESC`
	return r.list(ctx, query, teamID, from, to)
}

func (r *postgresFinanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.FinanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.FinanceEntry, 0)
	for rows.Next() {
		var e models.FinanceEntry
		if err := rows.Scan(&e.ID, &e.TeamID, &e.Type, &e.Amount, &e.Description, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresFinanceRepository) Totals(ctx context.Context, teamID int, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'INCOME'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'EXPENSE'), 0)
		FROM finance_entries
		WHERE team_id = $1 AND entry_date BETWEEN $2 AND $3`

	var income, expense decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, teamID, from, to).Scan(&income, &expense); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return income, expense, nil
}

func (r *postgresFinanceRepository) DeleteByTeam(ctx context.Context, teamID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM finance_entries WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFinanceEntryNotFound)
}
