package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

type MatchStatRepository interface {
	// Upsert сохраняет строку статистики; для пары (матч, игрок) хранится одна строка.
	Upsert(ctx context.Context, exec SQLExecutor, stat *models.MatchPlayerStat) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPlayerStat, error)
	// ListCompletedByPlayer возвращает статистику игрока по завершенным матчам команды.
	ListCompletedByPlayer(ctx context.Context, teamID, playerID int) ([]*models.MatchPlayerStat, error)
}

type postgresMatchStatRepository struct {
	db *sql.DB
}

func NewPostgresMatchStatRepository(db *sql.DB) MatchStatRepository {
	return &postgresMatchStatRepository{db: db}
}

func (r *postgresMatchStatRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchStatRepository) Upsert(ctx context.Context, exec SQLExecutor, stat *models.MatchPlayerStat) error {
	query := `
		INSERT INTO match_player_stats (match_id, player_id, minutes, points, rebounds, assists, fouls, plus_minus, mvp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, player_id) DO UPDATE SET
			minutes = EXCLUDED.minutes,
			points = EXCLUDED.points,
			rebounds = EXCLUDED.rebounds,
			assists = EXCLUDED.assists,
			fouls = EXCLUDED.fouls,
			plus_minus = EXCLUDED.plus_minus,
			mvp = EXCLUDED.mvp
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		stat.MatchID,
		stat.PlayerID,
		stat.Minutes,
		stat.Points,
		stat.Rebounds,
		stat.Assists,
		stat.Fouls,
		stat.PlusMinus,
		stat.MVP,
	).Scan(&stat.ID)
	if err != nil {
		return fmt.Errorf("failed to save stats of player %d in match %d: %w", stat.PlayerID, stat.MatchID, err)
	}
	return nil
}

const matchStatColumns = `s.id, s.match_id, s.player_id, s.minutes, s.points, s.rebounds, s.assists, s.fouls, s.plus_minus, s.mvp, p.name`

func (r *postgresMatchStatRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPlayerStat, error) {
	query := `
		SELECT ` + matchStatColumns + `
		FROM match_player_stats s
		JOIN players p ON p.id = s.player_id
		WHERE s.match_id = $1
		ORDER BY s.points DESC, p.name`
	return r.list(ctx, query, matchID)
}

func (r *postgresMatchStatRepository) ListCompletedByPlayer(ctx context.Context, teamID, playerID int) ([]*models.MatchPlayerStat, error) {
	query := `
		SELECT ` + matchStatColumns + `
		FROM match_player_stats s
		JOIN players p ON p.id = s.player_id
		JOIN matches m ON m.id = s.match_id
		WHERE m.team_id = $1 AND s.player_id = $2 AND m.status = 'COMPLETED'
		ORDER BY m.match_date`
	return r.list(ctx, query, teamID, playerID)
}

func (r *postgresMatchStatRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.MatchPlayerStat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]*models.MatchPlayerStat, 0)
	for rows.Next() {
		var s models.MatchPlayerStat
		if err := rows.Scan(
			&s.ID,
			&s.MatchID,
			&s.PlayerID,
			&s.Minutes,
			&s.Points,
			&s.Rebounds,
			&s.Assists,
			&s.Fouls,
			&s.PlusMinus,
			&s.MVP,
			&s.PlayerName,
		); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
