package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alex1231123112/manager/services"
	"github.com/robfig/cron/v3"
)

// Config - расписания фоновых задач в формате cron с секундами.
type Config struct {
	ReminderSpec    string
	DebtSpec        string
	InvitePurgeSpec string
	Location        *time.Location
}

// Scheduler запускает напоминания, еженедельную сводку долгов и очистку приглашений.
type Scheduler struct {
	cron        *cron.Cron
	reminders   services.ReminderService
	invitations services.InvitationService
	logger      *slog.Logger
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, reminders services.ReminderService, invitations services.InvitationService, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	cronLogger := slogAdapter{logger: logger.With(slog.String("component", "scheduler"))}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		reminders:   reminders,
		invitations: invitations,
		logger:      logger,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"match reminders", cfg.ReminderSpec, s.runMatchReminders},
		{"debt reminders", cfg.DebtSpec, s.runDebtReminders},
		{"invitation purge", cfg.InvitePurgeSpec, s.runInvitationPurge},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid cron spec %q for %s: %w", job.spec, job.name, err)
		}
	}
	return s, nil
}

// Start запускает планировщик. Напоминания проверяются сразу, не дожидаясь первого срабатывания.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	go s.runMatchReminders()
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущих задач, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) runMatchReminders() {
	report := s.reminders.RunMatchReminders(s.ctx, s.now())
	if report.Sent24h+report.SentStats+report.Sent3h+report.SentAfter > 0 || report.ListErrors > 0 {
		s.logger.Info("Scheduler: match reminders processed",
			slog.Int("sent_24h", report.Sent24h),
			slog.Int("sent_stats", report.SentStats),
			slog.Int("sent_3h", report.Sent3h),
			slog.Int("sent_after", report.SentAfter),
			slog.Int("list_errors", report.ListErrors),
		)
	}
}

func (s *Scheduler) runDebtReminders() {
	s.logger.Info("Scheduler: triggering weekly debt reminders")
	if err := s.reminders.SendWeeklyDebtReminders(s.ctx, s.now()); err != nil {
		s.logger.Error("Scheduler: debt reminders failed", slog.Any("error", err))
	}
}

func (s *Scheduler) runInvitationPurge() {
	removed, err := s.invitations.PurgeExpired(s.ctx, s.now())
	if err != nil {
		s.logger.Error("Scheduler: invitation purge failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		s.logger.Info("Scheduler: expired invitations removed", slog.Int64("count", removed))
	}
}

// slogAdapter реализует cron.Logger поверх slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
