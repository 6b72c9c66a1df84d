package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Alex1231123112/manager/models"
)

var (
	ErrInvitationNotFound     = errors.New("invitation not found")
	ErrInvitationCodeConflict = errors.New("invitation code conflict")
	ErrInvitationTeamInvalid  = errors.New("invitation team conflict or invalid")
)

// InvitationRepository определяет интерфейс для работы с приглашениями.
type InvitationRepository interface {
	// Create сохраняет приглашение. ExpiresAt выставляет сервисный слой.
	Create(ctx context.Context, invitation *models.Invitation) error

	// GetByCode ищет приглашение по коду. Срок действия не проверяется.
	GetByCode(ctx context.Context, code string) (*models.Invitation, error)

	// ListByTeamID возвращает приглашения команды, новые первыми.
	ListByTeamID(ctx context.Context, teamID int) ([]*models.Invitation, error)

	// DeleteByTeamAndCode удаляет приглашение, только если оно принадлежит команде.
	DeleteByTeamAndCode(ctx context.Context, teamID int, code string) error

	// DeleteExpired удаляет приглашения, истекшие к моменту now. Возвращает количество удаленных.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (code, team_id, role, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invitation.Code,
		invitation.TeamID,
		invitation.Role,
		invitation.ExpiresAt,
	).Scan(&invitation.ID, &invitation.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "invitations_code_key"):
			return ErrInvitationCodeConflict
		case isForeignKeyViolation(err):
			return ErrInvitationTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresInvitationRepository) GetByCode(ctx context.Context, code string) (*models.Invitation, error) {
	query := `
		SELECT id, code, team_id, role, expires_at, created_at
		FROM invitations
		WHERE code = $1`

	invitation := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&invitation.ID,
		&invitation.Code,
		&invitation.TeamID,
		&invitation.Role,
		&invitation.ExpiresAt,
		&invitation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return invitation, nil
}

func (r *postgresInvitationRepository) ListByTeamID(ctx context.Context, teamID int) ([]*models.Invitation, error) {
	query := `
		SELECT id, code, team_id, role, expires_at, created_at
		FROM invitations
		WHERE team_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var invitation models.Invitation
		if scanErr := rows.Scan(
			&invitation.ID,
			&invitation.Code,
			&invitation.TeamID,
			&invitation.Role,
			&invitation.ExpiresAt,
			&invitation.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invitations = append(invitations, &invitation)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *postgresInvitationRepository) DeleteByTeamAndCode(ctx context.Context, teamID int, code string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE team_id = $1 AND code = $2`, teamID, code)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInvitationNotFound)
}

func (r *postgresInvitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
