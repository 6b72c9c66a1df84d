package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

type EventInput struct {
	Title       string           `json:"title"`
	Type        models.EventType `json:"event_type"`
	EventDate   time.Time        `json:"event_date"`
	Location    *string          `json:"location"`
	Description *string          `json:"description"`
}

type EventService interface {
	List(ctx context.Context, teamID int, from, to time.Time) ([]*models.Event, error)
	// Create сохраняет событие и объявляет его в чате команды.
	Create(ctx context.Context, teamID int, in EventInput) (*models.Event, error)
	Delete(ctx context.Context, teamID, id int) error
}

type eventService struct {
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	notifier  Notifier
	location  *time.Location
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	notifier Notifier,
	location *time.Location,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		teamRepo:  teamRepo,
		notifier:  notifier,
		location:  location,
		logger:    logger,
	}
}

func (s *eventService) List(ctx context.Context, teamID int, from, to time.Time) ([]*models.Event, error) {
	return s.eventRepo.ListByTeam(ctx, teamID, from, to)
}

func (s *eventService) Create(ctx context.Context, teamID int, in EventInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if in.EventDate.IsZero() {
		return nil, fmt.Errorf("%w: event date is required", ErrValidationFailed)
	}
	eventType := in.Type
	switch eventType {
	case models.EventTypeTraining, models.EventTypeMeeting, models.EventTypeOther:
	case "":
		eventType = models.EventTypeOther
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrValidationFailed, in.Type)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	event := &models.Event{
		TeamID:      teamID,
		Title:       title,
		Type:        eventType,
		EventDate:   in.EventDate,
		Location:    optionalString(derefString(in.Location)),
		Description: optionalString(derefString(in.Description)),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	if chatID := team.NotificationChatID(); chatID != "" {
		msg := models.OutgoingMessage{ChatID: chatID, Text: eventAnnouncementText(event, s.location)}
		if err := s.notifier.SendMessage(ctx, msg, teamMeta(models.EventBotMessage, teamID)); err != nil {
			s.logger.WarnContext(ctx, "failed to announce event", slog.Int("event_id", event.ID), slog.Any("error", err))
		}
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, teamID, id int) error {
	err := s.eventRepo.DeleteByTeam(ctx, teamID, id)
	if errors.Is(err, repositories.ErrEventNotFound) {
		return ErrEventNotFound
	}
	return err
}
