package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Alex1231123112/manager/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchTeamInvalid    = errors.New("match team conflict or invalid")
	ErrUnknownReminderKind = errors.New("unknown reminder kind")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// Update меняет данные матча и результат. Флаги напоминаний не затрагиваются.
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id int) error
	ListByTeam(ctx context.Context, teamID int) ([]*models.Match, error)
	// ListUpcoming - запланированные матчи с датой >= after, ближайшие первыми.
	ListUpcoming(ctx context.Context, teamID int, after time.Time, limit int) ([]*models.Match, error)
	// ListPast - матчи с датой < before, последние первыми.
	ListPast(ctx context.Context, teamID int, before time.Time, limit int) ([]*models.Match, error)

	// Выборки для планировщика напоминаний; матчи возвращаются вместе с командой.
	ListDueFor24h(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	ListDueForStats(ctx context.Context, sentBefore time.Time) ([]*models.Match, error)
	ListDueFor3h(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	ListDueForAfter(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	// MarkReminderSent выставляет флаг, только если он еще не выставлен.
	// Возвращает true, если флаг изменил именно этот вызов.
	MarkReminderSent(ctx context.Context, id int, kind models.ReminderKind, at time.Time) (bool, error)

	SetCardKey(ctx context.Context, id int, key *string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `m.id, m.team_id, m.opponent, m.match_date, m.our_score, m.opponent_score, m.location, m.status,
	m.reminder_24h_sent, m.reminder_24h_sent_at, m.reminder_stats_sent, m.reminder_3h_sent, m.reminder_after_sent,
	m.card_key, m.created_at`

const matchWithTeamColumns = matchColumns + `,
	t.id, t.name, t.telegram_chat_id, t.group_chat_id, t.channel_chat_id, t.logo_key, t.created_at`

func matchScanDest(m *models.Match) []interface{} {
	return []interface{}{
		&m.ID,
		&m.TeamID,
		&m.Opponent,
		&m.Date,
		&m.OurScore,
		&m.OpponentScore,
		&m.Location,
		&m.Status,
		&m.Reminder24hSent,
		&m.Reminder24hSentAt,
		&m.ReminderStatsSent,
		&m.Reminder3hSent,
		&m.ReminderAfterSent,
		&m.CardKey,
		&m.CreatedAt,
	}
}

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(matchScanDest(m)...)
}

func scanMatchWithTeam(row rowScanner, m *models.Match) error {
	team := &models.Team{}
	dest := append(matchScanDest(m),
		&team.ID,
		&team.Name,
		&team.TelegramChatID,
		&team.GroupChatID,
		&team.ChannelChatID,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	m.Team = team
	return nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (team_id, opponent, match_date, location, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TeamID,
		match.Opponent,
		match.Date,
		match.Location,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMatchTeamInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.id = $1`

	match := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET opponent = $2, match_date = $3, location = $4, our_score = $5, opponent_score = $6, status = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		match.ID,
		match.Opponent,
		match.Date,
		match.Location,
		match.OurScore,
		match.OpponentScore,
		match.Status,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.team_id = $1 ORDER BY m.match_date DESC`
	return r.list(ctx, scanMatch, query, teamID)
}

func (r *postgresMatchRepository) ListUpcoming(ctx context.Context, teamID int, after time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE m.team_id = $1 AND m.status = 'SCHEDULED' AND m.match_date >= $2
		ORDER BY m.match_date
		LIMIT $3`
	return r.list(ctx, scanMatch, query, teamID, after, limit)
}

func (r *postgresMatchRepository) ListPast(ctx context.Context, teamID int, before time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE m.team_id = $1 AND m.match_date < $2
		ORDER BY m.match_date DESC
		LIMIT $3`
	return r.list(ctx, scanMatch, query, teamID, before, limit)
}

func (r *postgresMatchRepository) ListDueFor24h(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchWithTeamColumns + `
		FROM matches m
		JOIN teams t ON t.id = m.team_id
		WHERE m.status = 'SCHEDULED' AND m.match_date BETWEEN $1 AND $2 AND NOT m.reminder_24h_sent
		ORDER BY m.match_date`
	return r.list(ctx, scanMatchWithTeam, query, from, to)
}

func (r *postgresMatchRepository) ListDueForStats(ctx context.Context, sentBefore time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchWithTeamColumns + `
		FROM matches m
		JOIN teams t ON t.id = m.team_id
		WHERE m.reminder_24h_sent_at IS NOT NULL AND m.reminder_24h_sent_at <= $1 AND NOT m.reminder_stats_sent
		ORDER BY m.match_date`
	return r.list(ctx, scanMatchWithTeam, query, sentBefore)
}

func (r *postgresMatchRepository) ListDueFor3h(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchWithTeamColumns + `
		FROM matches m
		JOIN teams t ON t.id = m.team_id
		WHERE m.status = 'SCHEDULED' AND m.match_date BETWEEN $1 AND $2 AND NOT m.reminder_3h_sent
		ORDER BY m.match_date`
	return r.list(ctx, scanMatchWithTeam, query, from, to)
}

func (r *postgresMatchRepository) ListDueForAfter(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchWithTeamColumns + `
		FROM matches m
		JOIN teams t ON t.id = m.team_id
		WHERE m.status = 'SCHEDULED' AND m.match_date BETWEEN $1 AND $2 AND NOT m.reminder_after_sent
		ORDER BY m.match_date`
	return r.list(ctx, scanMatchWithTeam, query, from, to)
}

func (r *postgresMatchRepository) list(
	ctx context.Context,
	scan func(row rowScanner, m *models.Match) error,
	query string,
	args ...interface{},
) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scan(rows, &m); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) MarkReminderSent(ctx context.Context, id int, kind models.ReminderKind, at time.Time) (bool, error) {
	var (
		query string
		args  []interface{}
	)
	switch kind {
	case models.Reminder24h:
		query = `UPDATE matches SET reminder_24h_sent = TRUE, reminder_24h_sent_at = $2 WHERE id = $1 AND NOT reminder_24h_sent`
		args = []interface{}{id, at}
	case models.ReminderStats:
		query = `UPDATE matches SET reminder_stats_sent = TRUE WHERE id = $1 AND NOT reminder_stats_sent`
		args = []interface{}{id}
	case models.Reminder3h:
		query = `UPDATE matches SET reminder_3h_sent = TRUE WHERE id = $1 AND NOT reminder_3h_sent`
		args = []interface{}{id}
	case models.ReminderAfter:
		query = `UPDATE matches SET reminder_after_sent = TRUE WHERE id = $1 AND NOT reminder_after_sent`
		args = []interface{}{id}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownReminderKind, kind)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s reminder for match %d: %w", kind, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) SetCardKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET card_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
