package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamChatConflict = errors.New("team with this telegram chat already exists")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetByChatID ищет команду по основному или групповому чату.
	GetByChatID(ctx context.Context, chatID string) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	UpdateChats(ctx context.Context, id int, channelChatID, groupChatID *string) error
	UpdateLogo(ctx context.Context, id int, logoKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, name, telegram_chat_id, group_chat_id, channel_chat_id, logo_key, created_at`

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanTeam(row rowScanner, team *models.Team) error {
	return row.Scan(
		&team.ID,
		&team.Name,
		&team.TelegramChatID,
		&team.GroupChatID,
		&team.ChannelChatID,
		&team.LogoKey,
		&team.CreatedAt,
	)
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, telegram_chat_id, group_chat_id, channel_chat_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.Name,
		team.TelegramChatID,
		team.GroupChatID,
		team.ChannelChatID,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "teams_telegram_chat_id_key") {
			return ErrTeamChatConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team := &models.Team{}
	if err := scanTeam(r.db.QueryRowContext(ctx, query, id), team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByChatID(ctx context.Context, chatID string) (*models.Team, error) {
	// group_chat_id может храниться без префикса -100, как его скопировал админ.
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE telegram_chat_id = $1 OR group_chat_id = $1 OR '-100' || group_chat_id = $1
		ORDER BY id
		LIMIT 1`

	team := &models.Team{}
	if err := scanTeam(r.db.QueryRowContext(ctx, query, chatID), team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := scanTeam(rows, &team); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateChats(ctx context.Context, id int, channelChatID, groupChatID *string) error {
	query := `UPDATE teams SET channel_chat_id = $2, group_chat_id = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, channelChatID, groupChatID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogo(ctx context.Context, id int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, logoKey)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
