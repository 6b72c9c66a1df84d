package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex1231123112/manager/models"
)

var (
	ErrMemberNotFound    = errors.New("team member not found")
	ErrMemberTeamInvalid = errors.New("team member team conflict or invalid")
)

// MemberRepository хранит участников команд (пользователей Telegram с ролью).
type MemberRepository interface {
	// Upsert добавляет участника или обновляет роль существующего и снова активирует его.
	// Пустые username/display_name не затирают сохраненные значения.
	Upsert(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	GetByTeamAndUser(ctx context.Context, teamID int, telegramUserID string) (*models.TeamMember, error)
	CountByTeam(ctx context.Context, teamID int) (int, error)
	CountActiveByTeam(ctx context.Context, teamID int) (int, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	ListActiveByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	// FindFirstActiveByUser возвращает самое раннее активное членство пользователя.
	FindFirstActiveByUser(ctx context.Context, telegramUserID string) (*models.TeamMember, error)
	Update(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const memberColumns = `id, team_id, telegram_user_id, telegram_username, display_name, role, is_active, created_at`

func scanMember(row rowScanner, m *models.TeamMember) error {
	return row.Scan(
		&m.ID,
		&m.TeamID,
		&m.TelegramUserID,
		&m.TelegramUsername,
		&m.DisplayName,
		&m.Role,
		&m.IsActive,
		&m.CreatedAt,
	)
}

func (r *postgresMemberRepository) Upsert(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, telegram_user_id, telegram_username, display_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (team_id, telegram_user_id) DO UPDATE SET
			role = EXCLUDED.role,
			is_active = TRUE,
			telegram_username = COALESCE(NULLIF(EXCLUDED.telegram_username, ''), team_members.telegram_username),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), team_members.display_name)
		RETURNING ` + memberColumns

	err := scanMember(r.getExecutor(exec).QueryRowContext(ctx, query,
		member.TeamID,
		member.TelegramUserID,
		member.TelegramUsername,
		member.DisplayName,
		member.Role,
	), member)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMemberTeamInvalid
		}
		return fmt.Errorf("failed to upsert team member: %w", err)
	}
	return nil
}

func (r *postgresMemberRepository) GetByTeamAndUser(ctx context.Context, teamID int, telegramUserID string) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE team_id = $1 AND telegram_user_id = $2`

	member := &models.TeamMember{}
	if err := scanMember(r.db.QueryRowContext(ctx, query, teamID, telegramUserID), member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *postgresMemberRepository) CountByTeam(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count)
	return count, err
}

func (r *postgresMemberRepository) CountActiveByTeam(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND is_active`, teamID).Scan(&count)
	return count, err
}

func (r *postgresMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 ORDER BY is_active DESC, created_at`, teamID)
}

func (r *postgresMemberRepository) ListActiveByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 AND is_active ORDER BY created_at`, teamID)
}

func (r *postgresMemberRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresMemberRepository) FindFirstActiveByUser(ctx context.Context, telegramUserID string) (*models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE telegram_user_id = $1 AND is_active
		ORDER BY created_at, id
		LIMIT 1`

	member := &models.TeamMember{}
	if err := scanMember(r.db.QueryRowContext(ctx, query, telegramUserID), member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *postgresMemberRepository) Update(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		UPDATE team_members
		SET telegram_username = $3, display_name = $4, role = $5, is_active = $6
		WHERE team_id = $1 AND telegram_user_id = $2`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		member.TeamID,
		member.TelegramUserID,
		member.TelegramUsername,
		member.DisplayName,
		member.Role,
		member.IsActive,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
