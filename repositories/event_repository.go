package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Alex1231123112/manager/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	// ListByTeam возвращает события команды; нулевые from/to не ограничивают период.
	ListByTeam(ctx context.Context, teamID int, from, to time.Time) ([]*models.Event, error)
	DeleteByTeam(ctx context.Context, teamID, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (team_id, title, event_type, event_date, location, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.TeamID,
		event.Title,
		event.Type,
		event.EventDate,
		event.Location,
		event.Description,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) ListByTeam(ctx context.Context, teamID int, from, to time.Time) ([]*models.Event, error) {
	query := `
		SELECT id, team_id, title, event_type, event_date, location, description, created_at
		FROM events
		WHERE team_id = $1
		  AND ($2::timestamptz IS NULL OR event_date >= $2)
		  AND ($3::timestamptz IS NULL OR event_date <= $3)
		ORDER BY event_date`

	rows, err := r.db.QueryContext(ctx, query, teamID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.TeamID, &e.Title, &e.Type, &e.EventDate, &e.Location, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) DeleteByTeam(ctx context.Context, teamID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
