package services

import (
	"context"
	"log/slog"

	"github.com/Alex1231123112/manager/models"
)

// Notifier доставляет сообщения во внешний мессенджер.
// Реализация сама записывает каждую попытку в журнал интеграций.
type Notifier interface {
	SendMessage(ctx context.Context, msg models.OutgoingMessage, meta DeliveryMeta) error
	SendPhoto(ctx context.Context, photo models.OutgoingPhoto, meta DeliveryMeta) error
	SendPoll(ctx context.Context, poll models.OutgoingPoll, meta DeliveryMeta) error
}

// DeliveryMeta описывает отправку для журнала интеграций.
type DeliveryMeta struct {
	Type    models.IntegrationEventType
	TeamID  *int
	MatchID *int
}

func teamMeta(t models.IntegrationEventType, teamID int) DeliveryMeta {
	return DeliveryMeta{Type: t, TeamID: &teamID}
}

func matchMeta(t models.IntegrationEventType, teamID, matchID int) DeliveryMeta {
	return DeliveryMeta{Type: t, TeamID: &teamID, MatchID: &matchID}
}

// RecordingNotifier используется, когда бот не настроен: сообщения только логируются,
// а попытка фиксируется как неуспешная.
type RecordingNotifier struct {
	metrics IntegrationMetricsService
	logger  *slog.Logger
}

func NewRecordingNotifier(metrics IntegrationMetricsService, logger *slog.Logger) *RecordingNotifier {
	return &RecordingNotifier{metrics: metrics, logger: logger}
}

func (n *RecordingNotifier) SendMessage(ctx context.Context, msg models.OutgoingMessage, meta DeliveryMeta) error {
	return n.skip(ctx, msg.ChatID, meta)
}

func (n *RecordingNotifier) SendPhoto(ctx context.Context, photo models.OutgoingPhoto, meta DeliveryMeta) error {
	return n.skip(ctx, photo.ChatID, meta)
}

func (n *RecordingNotifier) SendPoll(ctx context.Context, poll models.OutgoingPoll, meta DeliveryMeta) error {
	return n.skip(ctx, poll.ChatID, meta)
}

func (n *RecordingNotifier) skip(ctx context.Context, chatID string, meta DeliveryMeta) error {
	n.logger.InfoContext(ctx, "telegram is disabled, message dropped",
		slog.String("type", string(meta.Type)),
		slog.String("chat_id", chatID),
	)
	n.metrics.Record(ctx, meta.Type, chatID, ErrNotifierDisabled, meta.TeamID, meta.MatchID)
	return ErrNotifierDisabled
}
