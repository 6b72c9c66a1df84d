package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerTelegramConflict = errors.New("player with this telegram id already exists in the team")
	ErrPlayerTeamInvalid      = errors.New("player team conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByTelegramID(ctx context.Context, teamID int, telegramID string) (*models.Player, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error)
	// ListDebtors возвращает игроков с долгом больше нуля, самые крупные долги первыми.
	ListDebtors(ctx context.Context, teamID int) ([]*models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	// UpsertByTelegramID создает или обновляет игрока, привязанного к пользователю Telegram.
	UpsertByTelegramID(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, team_id, name, number, telegram_id, is_active, status, debt, photo_key, created_at`

func scanPlayer(row rowScanner, p *models.Player) error {
	return row.Scan(
		&p.ID,
		&p.TeamID,
		&p.Name,
		&p.Number,
		&p.TelegramID,
		&p.IsActive,
		&p.Status,
		&p.Debt,
		&p.PhotoKey,
		&p.CreatedAt,
	)
}

func mapPlayerWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "players_team_telegram_key"):
		return ErrPlayerTelegramConflict
	case isForeignKeyViolation(err):
		return ErrPlayerTeamInvalid
	}
	return err
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (team_id, name, number, telegram_id, is_active, status, debt)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.TeamID,
		player.Name,
		player.Number,
		player.TelegramID,
		player.IsActive,
		player.Status,
		player.Debt,
	).Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", mapPlayerWriteError(err))
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player := &models.Player{}
	if err := scanPlayer(r.db.QueryRowContext(ctx, query, id), player); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) GetByTelegramID(ctx context.Context, teamID int, telegramID string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_id = $1 AND telegram_id = $2`

	player := &models.Player{}
	if err := scanPlayer(r.db.QueryRowContext(ctx, query, teamID, telegramID), player); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE team_id = $1 ORDER BY number NULLS LAST, name`, teamID)
}

func (r *postgresPlayerRepository) ListDebtors(ctx context.Context, teamID int) ([]*models.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE team_id = $1 AND debt > 0 ORDER BY debt DESC, name`, teamID)
}

func (r *postgresPlayerRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $2, number = $3, telegram_id = $4, is_active = $5, status = $6, debt = $7, photo_key = $8
		WHERE id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.ID,
		player.Name,
		player.Number,
		player.TelegramID,
		player.IsActive,
		player.Status,
		player.Debt,
		player.PhotoKey,
	)
	if err != nil {
		return mapPlayerWriteError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpsertByTelegramID(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (team_id, name, number, telegram_id, is_active, status, debt)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id, telegram_id) DO UPDATE SET
			name = EXCLUDED.name,
			number = EXCLUDED.number,
			is_active = EXCLUDED.is_active,
			status = EXCLUDED.status,
			debt = EXCLUDED.debt
		RETURNING ` + playerColumns

	err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query,
		player.TeamID,
		player.Name,
		player.Number,
		player.TelegramID,
		player.IsActive,
		player.Status,
		player.Debt,
	), player)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", mapPlayerWriteError(err))
	}
	return nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
