package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

const (
	integrationTargetMaxLen = 50
	integrationErrorMaxLen  = 2000
	defaultRecentEvents     = 100
	maxRecentEvents         = 200
	defaultStatsPeriod      = 7 * 24 * time.Hour
)

type IntegrationMetricsService interface {
	// Record сохраняет попытку отправки. sendErr == nil означает успех.
	// Ошибка записи только логируется: журнал не должен ломать отправку.
	Record(ctx context.Context, eventType models.IntegrationEventType, target string, sendErr error, teamID, matchID *int)
	Recent(ctx context.Context, limit int) ([]*models.IntegrationEvent, error)
	Stats(ctx context.Context, from, to time.Time) (*models.IntegrationStats, error)
}

type integrationMetricsService struct {
	eventRepo repositories.IntegrationEventRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewIntegrationMetricsService(eventRepo repositories.IntegrationEventRepository, logger *slog.Logger) IntegrationMetricsService {
	return &integrationMetricsService{
		eventRepo: eventRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *integrationMetricsService) Record(ctx context.Context, eventType models.IntegrationEventType, target string, sendErr error, teamID, matchID *int) {
	event := &models.IntegrationEvent{
		EventType: eventType,
		Success:   sendErr == nil,
		TeamID:    teamID,
		MatchID:   matchID,
	}
	if target != "" {
		t := truncateRunes(target, integrationTargetMaxLen)
		event.TargetChatID = &t
	}
	if sendErr != nil {
		msg := truncateRunes(sendErr.Error(), integrationErrorMaxLen)
		event.ErrorMessage = &msg
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record integration event",
			slog.String("type", string(eventType)),
			slog.Any("error", err),
		)
	}
}

func (s *integrationMetricsService) Recent(ctx context.Context, limit int) ([]*models.IntegrationEvent, error) {
	if limit <= 0 || limit > maxRecentEvents {
		limit = defaultRecentEvents
	}
	return s.eventRepo.ListRecent(ctx, limit)
}

func (s *integrationMetricsService) Stats(ctx context.Context, from, to time.Time) (*models.IntegrationStats, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultStatsPeriod)
	}

	counts, err := s.eventRepo.CountBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byType := make(map[models.IntegrationEventType]*models.IntegrationTypeStats, len(models.IntegrationEventTypes))
	stats := &models.IntegrationStats{From: from, To: to, ByType: make([]models.IntegrationTypeStats, 0, len(models.IntegrationEventTypes))}
	for _, t := range models.IntegrationEventTypes {
		byType[t] = &models.IntegrationTypeStats{Type: t, Label: t.Label()}
	}

	for _, c := range counts {
		ts, ok := byType[c.Type]
		if !ok {
			ts = &models.IntegrationTypeStats{Type: c.Type, Label: c.Type.Label()}
			byType[c.Type] = ts
		}
		ts.Total += c.Count
		stats.Total += c.Count
		if c.Success {
			ts.Success += c.Count
			stats.Success += c.Count
		} else {
			ts.Failed += c.Count
			stats.Failed += c.Count
		}
	}

	for _, t := range models.IntegrationEventTypes {
		stats.ByType = append(stats.ByType, *byType[t])
		delete(byType, t)
	}
	// Типы, которых нет в справочнике (старые записи), идут в конце.
	for _, c := range counts {
		if ts, ok := byType[c.Type]; ok {
			stats.ByType = append(stats.ByType, *ts)
			delete(byType, c.Type)
		}
	}
	return stats, nil
}
