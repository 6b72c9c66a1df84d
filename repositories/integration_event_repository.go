package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alex1231123112/manager/models"
)

// IntegrationEventCount - агрегат по типу события и признаку успеха.
type IntegrationEventCount struct {
	Type    models.IntegrationEventType
	Success bool
	Count   int
}

type IntegrationEventRepository interface {
	Create(ctx context.Context, event *models.IntegrationEvent) error
	ListRecent(ctx context.Context, limit int) ([]*models.IntegrationEvent, error)
	CountBetween(ctx context.Context, from, to time.Time) ([]IntegrationEventCount, error)
}

type postgresIntegrationEventRepository struct {
	db *sql.DB
}

func NewPostgresIntegrationEventRepository(db *sql.DB) IntegrationEventRepository {
	return &postgresIntegrationEventRepository{db: db}
}

func (r *postgresIntegrationEventRepository) Create(ctx context.Context, event *models.IntegrationEvent) error {
	query := `
		INSERT INTO integration_events (event_type, target_chat_id, success, error_message, team_id, match_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.EventType,
		event.TargetChatID,
		event.Success,
		event.ErrorMessage,
		event.TeamID,
		event.MatchID,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record integration event: %w", err)
	}
	return nil
}

func (r *postgresIntegrationEventRepository) ListRecent(ctx context.Context, limit int) ([]*models.IntegrationEvent, error) {
	query := `
		SELECT id, event_type, target_chat_id, success, error_message, team_id, match_id, created_at
		FROM integration_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.IntegrationEvent, 0, limit)
	for rows.Next() {
		var e models.IntegrationEvent
		if err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.TargetChatID,
			&e.Success,
			&e.ErrorMessage,
			&e.TeamID,
			&e.MatchID,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresIntegrationEventRepository) CountBetween(ctx context.Context, from, to time.Time) ([]IntegrationEventCount, error) {
	query := `
		SELECT event_type, success, COUNT(*)
		FROM integration_events
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY event_type, success`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]IntegrationEventCount, 0)
	for rows.Next() {
		var c IntegrationEventCount
		if err := rows.Scan(&c.Type, &c.Success, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
