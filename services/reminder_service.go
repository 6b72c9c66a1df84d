package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"golang.org/x/sync/errgroup"
)

// Окна выборки матчей. Ширина окон больше периода запуска, поэтому матч не пропускается,
// а повторная отправка исключается флагом.
const (
	window24hFrom   = 23 * time.Hour
	window24hTo     = 25 * time.Hour
	statsDelay      = 2 * time.Hour
	window3hFrom    = 150 * time.Minute
	window3hTo      = 210 * time.Minute
	windowAfterFrom = 25 * time.Hour
	windowAfterTo   = 30 * time.Minute

	debtDigestConcurrency = 4
)

// ReminderReport - сколько матчей отмечено в каждом проходе.
type ReminderReport struct {
	Sent24h    int
	SentStats  int
	Sent3h     int
	SentAfter  int
	ListErrors int
}

type ReminderService interface {
	// RunMatchReminders выполняет четыре независимых прохода по матчам на момент now.
	RunMatchReminders(ctx context.Context, now time.Time) ReminderReport
	// SendWeeklyDebtReminders рассылает сводку должников всем командам, где они есть.
	SendWeeklyDebtReminders(ctx context.Context, now time.Time) error
	// SendDebtReminder отправляет сводку одной команде. false - должников нет.
	SendDebtReminder(ctx context.Context, teamID int) (bool, error)
}

type reminderService struct {
	matchRepo   repositories.MatchRepository
	teamRepo    repositories.TeamRepository
	playerRepo  repositories.PlayerRepository
	attendance  AttendanceService
	notifier    Notifier
	metrics     IntegrationMetricsService
	location    *time.Location
	logger      *slog.Logger
	concurrency int
}

func NewReminderService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	attendance AttendanceService,
	notifier Notifier,
	metrics IntegrationMetricsService,
	location *time.Location,
	logger *slog.Logger,
) ReminderService {
	return &reminderService{
		matchRepo:   matchRepo,
		teamRepo:    teamRepo,
		playerRepo:  playerRepo,
		attendance:  attendance,
		notifier:    notifier,
		metrics:     metrics,
		location:    location,
		logger:      logger,
		concurrency: debtDigestConcurrency,
	}
}

type reminderPass struct {
	kind      models.ReminderKind
	eventType models.IntegrationEventType
	list      func(ctx context.Context) ([]*models.Match, error)
	message   func(ctx context.Context, m *models.Match) (models.OutgoingMessage, error)
	counter   *int
}

func (s *reminderService) RunMatchReminders(ctx context.Context, now time.Time) ReminderReport {
	var report ReminderReport

	passes := []reminderPass{
		{
			kind:      models.Reminder24h,
			eventType: models.EventReminder24h,
			list: func(ctx context.Context) ([]*models.Match, error) {
				return s.matchRepo.ListDueFor24h(ctx, now.Add(window24hFrom), now.Add(window24hTo))
			},
			message: func(_ context.Context, m *models.Match) (models.OutgoingMessage, error) {
				return models.OutgoingMessage{Text: reminder24hText(m, s.location), Buttons: attendanceButtons(m.ID)}, nil
			},
			counter: &report.Sent24h,
		},
		{
			kind:      models.ReminderStats,
			eventType: models.EventReminderStats,
			list: func(ctx context.Context) ([]*models.Match, error) {
				return s.matchRepo.ListDueForStats(ctx, now.Add(-statsDelay))
			},
			message: func(ctx context.Context, m *models.Match) (models.OutgoingMessage, error) {
				counts, err := s.attendance.Counts(ctx, m)
				if err != nil {
					return models.OutgoingMessage{}, err
				}
				return models.OutgoingMessage{Text: reminderStatsText(m, counts, s.location)}, nil
			},
			counter: &report.SentStats,
		},
		{
			kind:      models.Reminder3h,
			eventType: models.EventReminder3h,
			list: func(ctx context.Context) ([]*models.Match, error) {
				return s.matchRepo.ListDueFor3h(ctx, now.Add(window3hFrom), now.Add(window3hTo))
			},
			message: func(_ context.Context, m *models.Match) (models.OutgoingMessage, error) {
				return models.OutgoingMessage{Text: reminder3hText(m, s.location)}, nil
			},
			counter: &report.Sent3h,
		},
		{
			kind:      models.ReminderAfter,
			eventType: models.EventReminderAfterMatch,
			list: func(ctx context.Context) ([]*models.Match, error) {
				return s.matchRepo.ListDueForAfter(ctx, now.Add(-windowAfterFrom), now.Add(-windowAfterTo))
			},
			message: func(_ context.Context, m *models.Match) (models.OutgoingMessage, error) {
				return models.OutgoingMessage{Text: reminderAfterText(m)}, nil
			},
			counter: &report.SentAfter,
		},
	}

	for _, pass := range passes {
		if ctx.Err() != nil {
			break
		}
		matches, err := pass.list(ctx)
		if err != nil {
			report.ListErrors++
			s.logger.ErrorContext(ctx, "failed to select matches for reminder",
				slog.String("kind", string(pass.kind)),
				slog.Any("error", err),
			)
			continue
		}
		for _, m := range matches {
			if s.remind(ctx, pass, m, now) {
				*pass.counter++
			}
		}
	}

	if report != (ReminderReport{}) {
		s.logger.InfoContext(ctx, "match reminders processed",
			slog.Int("sent_24h", report.Sent24h),
			slog.Int("sent_stats", report.SentStats),
			slog.Int("sent_3h", report.Sent3h),
			slog.Int("sent_after", report.SentAfter),
			slog.Int("list_errors", report.ListErrors),
		)
	}
	return report
}

// remind отправляет напоминание и выставляет флаг. Ошибка отправки не мешает выставить флаг.
func (s *reminderService) remind(ctx context.Context, pass reminderPass, m *models.Match, now time.Time) bool {
	logger := s.logger.With(slog.String("kind", string(pass.kind)), slog.Int("match_id", m.ID), slog.Int("team_id", m.TeamID))
	meta := matchMeta(pass.eventType, m.TeamID, m.ID)

	chatID := m.Team.NotificationChatID()
	msg, err := pass.message(ctx, m)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "failed to build reminder", slog.Any("error", err))
		s.metrics.Record(ctx, pass.eventType, chatID, err, meta.TeamID, meta.MatchID)
	case chatID == "":
		// Пропуск без чата не пишется в журнал интеграций.
		logger.InfoContext(ctx, "team chat is not configured, reminder skipped")
	default:
		msg.ChatID = chatID
		if err := s.notifier.SendMessage(ctx, msg, meta); err != nil {
			logger.WarnContext(ctx, "failed to send reminder", slog.Any("error", err))
		}
	}

	marked, err := s.matchRepo.MarkReminderSent(ctx, m.ID, pass.kind, now)
	if err != nil {
		logger.ErrorContext(ctx, "failed to mark reminder as sent", slog.Any("error", err))
		return false
	}
	return marked
}

func (s *reminderService) SendWeeklyDebtReminders(ctx context.Context, now time.Time) error {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, team := range teams {
		team := team
		g.Go(func() error {
			sent, err := s.sendDebtDigest(gctx, team)
			if err != nil {
				// Ошибка одной команды не останавливает рассылку остальным.
				s.logger.WarnContext(gctx, "failed to send debt reminder", slog.Int("team_id", team.ID), slog.Any("error", err))
				return nil
			}
			if sent {
				s.logger.InfoContext(gctx, "debt reminder sent", slog.Int("team_id", team.ID), slog.Time("at", now))
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *reminderService) SendDebtReminder(ctx context.Context, teamID int) (bool, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return false, ErrTeamNotFound
		}
		return false, err
	}
	return s.sendDebtDigest(ctx, team)
}

func (s *reminderService) sendDebtDigest(ctx context.Context, team *models.Team) (bool, error) {
	debtors, err := s.playerRepo.ListDebtors(ctx, team.ID)
	if err != nil {
		return false, err
	}
	if len(debtors) == 0 {
		return false, nil
	}

	chatID := team.NotificationChatID()
	if chatID == "" {
		return false, ErrChatNotConfigured
	}

	msg := models.OutgoingMessage{ChatID: chatID, Text: DebtDigestText(debtors)}
	if err := s.notifier.SendMessage(ctx, msg, teamMeta(models.EventDebtReminder, team.ID)); err != nil {
		return false, err
	}
	return true, nil
}
