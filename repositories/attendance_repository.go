package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex1231123112/manager/models"
	"github.com/lib/pq"
)

var ErrAttendanceMatchInvalid = errors.New("attendance match conflict or invalid")

type AttendanceRepository interface {
	// Upsert сохраняет ответ участника; для пары (матч, участник) хранится одна строка.
	Upsert(ctx context.Context, attendance *models.EventAttendance) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.EventAttendance, error)
	CountByMatch(ctx context.Context, matchID int) (map[models.AttendanceStatus]int, error)
	// StatusesForUser возвращает ответы пользователя по перечисленным матчам (ключ - id матча).
	StatusesForUser(ctx context.Context, telegramUserID string, matchIDs []int) (map[int]models.AttendanceStatus, error)
}

type postgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &postgresAttendanceRepository{db: db}
}

func (r *postgresAttendanceRepository) Upsert(ctx context.Context, attendance *models.EventAttendance) error {
	query := `
		INSERT INTO event_attendance (match_id, telegram_user_id, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (match_id, telegram_user_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		attendance.MatchID,
		attendance.TelegramUserID,
		attendance.Status,
	).Scan(&attendance.ID, &attendance.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAttendanceMatchInvalid
		}
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

func (r *postgresAttendanceRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.EventAttendance, error) {
	query := `
		SELECT id, match_id, telegram_user_id, status, updated_at
		FROM event_attendance
		WHERE match_id = $1
		ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*models.EventAttendance, 0)
	for rows.Next() {
		var a models.EventAttendance
		if err := rows.Scan(&a.ID, &a.MatchID, &a.TelegramUserID, &a.Status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresAttendanceRepository) CountByMatch(ctx context.Context, matchID int) (map[models.AttendanceStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM event_attendance WHERE match_id = $1 GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.AttendanceStatus]int{
		models.AttendanceComing:    0,
		models.AttendanceLate:      0,
		models.AttendanceNotComing: 0,
	}
	for rows.Next() {
		var (
			status models.AttendanceStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresAttendanceRepository) StatusesForUser(ctx context.Context, telegramUserID string, matchIDs []int) (map[int]models.AttendanceStatus, error) {
	statuses := make(map[int]models.AttendanceStatus, len(matchIDs))
	if len(matchIDs) == 0 {
		return statuses, nil
	}

	ids := make([]int64, len(matchIDs))
	for i, id := range matchIDs {
		ids[i] = int64(id)
	}

	query := `
		SELECT match_id, status
		FROM event_attendance
		WHERE telegram_user_id = $1 AND match_id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, telegramUserID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID int
			status  models.AttendanceStatus
		)
		if err := rows.Scan(&matchID, &status); err != nil {
			return nil, err
		}
		statuses[matchID] = status
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}
