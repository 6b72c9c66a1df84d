package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

type LeagueTableRepository interface {
	ListByTeam(ctx context.Context, teamID int) ([]*models.LeagueTableRow, error)
	// ReplaceForTeam полностью заменяет таблицу команды переданными строками.
	ReplaceForTeam(ctx context.Context, exec SQLExecutor, teamID int, rows []*models.LeagueTableRow) error
}

type postgresLeagueTableRepository struct {
	db *sql.DB
}

func NewPostgresLeagueTableRepository(db *sql.DB) LeagueTableRepository {
	return &postgresLeagueTableRepository{db: db}
}

func (r *postgresLeagueTableRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueTableRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.LeagueTableRow, error) {
	query := `
		SELECT id, team_id, position, team_name, wins, losses, points_diff
		FROM league_table_rows
		WHERE team_id = $1
		ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := make([]*models.LeagueTableRow, 0)
	for rows.Next() {
		var row models.LeagueTableRow
		if err := rows.Scan(&row.ID, &row.TeamID, &row.Position, &row.TeamName, &row.Wins, &row.Losses, &row.PointsDiff); err != nil {
			return nil, err
		}
		table = append(table, &row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *postgresLeagueTableRepository) ReplaceForTeam(ctx context.Context, exec SQLExecutor, teamID int, rows []*models.LeagueTableRow) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM league_table_rows WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to clear league table: %w", err)
	}

	query := `
		INSERT INTO league_table_rows (team_id, position, team_name, wins, losses, points_diff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	for _, row := range rows {
		row.TeamID = teamID
		if err := executor.QueryRowContext(ctx, query,
			teamID,
			row.Position,
			row.TeamName,
			row.Wins,
			row.Losses,
			row.PointsDiff,
		).Scan(&row.ID); err != nil {
			return fmt.Errorf("failed to insert league table row %q: %w", row.TeamName, err)
		}
	}
	return nil
}
