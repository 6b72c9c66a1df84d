package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alex1231123112/manager/config"
	"github.com/Alex1231123112/manager/db"
	"github.com/Alex1231123112/manager/handlers"
	"github.com/Alex1231123112/manager/live"
	"github.com/Alex1231123112/manager/middleware"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/Alex1231123112/manager/routes"
	"github.com/Alex1231123112/manager/scheduler"
	"github.com/Alex1231123112/manager/services"
	"github.com/Alex1231123112/manager/storage"
	"github.com/Alex1231123112/manager/telegram"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// @title           Team Manager Admin API
// @version         1.0
// @description     Админка баскетбольной команды: состав, матчи, долги, финансы, приглашения.
// @BasePath        /api/admin
// @securityDefinitions.apikey SessionCookie
// @in              cookie
// @name            manager_session

const shutdownTimeout = 15 * time.Second

func main() {
	flags := pflag.NewFlagSet("manager", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: manager [flags] [serve | migrate | admin add <username>]\n\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	// Загрузка конфигурации
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	args := flags.Args()
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		err = serve(cfg, logger)
	case "migrate":
		err = migrate(cfg, logger)
	case "admin":
		err = adminCommand(cfg, logger, args[1:])
	default:
		flags.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func migrate(cfg *config.Config, logger *slog.Logger) error {
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		return err
	}
	logger.Info("database schema applied")
	return nil
}

func adminCommand(cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) != 2 || args[0] != "add" {
		return errors.New("usage: manager admin add <username>")
	}
	username := args[1]

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		return err
	}

	authService := services.NewAuthService(repositories.NewPostgresAdminRepository(dbConn))
	admin, err := authService.EnsureAdmin(ctx, username, string(password))
	if err != nil {
		return err
	}
	logger.Info("admin saved", slog.Int("admin_id", admin.ID), slog.String("username", admin.Username))
	return nil
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	location := cfg.Location()
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("timezone", location.String()),
		slog.Bool("telegram", cfg.TelegramEnabled()),
		slog.Bool("r2", cfg.R2Enabled()),
		slog.Bool("smtp", cfg.SMTPEnabled()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		return err
	}
	logger.Info("database connection established")

	// Загрузчик файлов (Cloudflare R2) необязателен
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			return err
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, file uploads are disabled")
	}

	var mailer services.InviteMailer
	if cfg.SMTPEnabled() {
		emailService, err := services.NewEmailService(cfg)
		if err != nil {
			return err
		}
		mailer = emailService
	}

	// WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run(ctx)

	// Репозитории
	tx := repositories.NewTransactor(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	attendanceRepo := repositories.NewPostgresAttendanceRepository(dbConn)
	inviteRepo := repositories.NewPostgresInvitationRepository(dbConn)
	financeRepo := repositories.NewPostgresFinanceRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	tableRepo := repositories.NewPostgresLeagueTableRepository(dbConn)
	statRepo := repositories.NewPostgresMatchStatRepository(dbConn)
	settingRepo := repositories.NewPostgresSystemSettingRepository(dbConn)
	integrationRepo := repositories.NewPostgresIntegrationEventRepository(dbConn)

	metrics := services.NewIntegrationMetricsService(integrationRepo, logger)

	// Telegram: без токена сообщения только записываются в журнал
	var (
		notifier services.Notifier = services.NewRecordingNotifier(metrics, logger)
		botAPI   *tgbotapi.BotAPI
		client   *telegram.Client
	)
	if cfg.TelegramEnabled() {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("failed to connect to Telegram Bot API: %w", err)
		}
		client = telegram.NewClient(botAPI, metrics, logger)
		notifier = client
		logger.Info("Telegram bot authorized", slog.String("username", botAPI.Self.UserName))
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, outgoing messages are only recorded")
	}

	// Сервисы
	authService := services.NewAuthService(adminRepo)
	settingsService := services.NewSettingsService(settingRepo)
	teamService := services.NewTeamService(teamRepo, memberRepo, tx, notifier, uploader, logger)
	memberService := services.NewMemberService(memberRepo, playerRepo, tx, hub, logger)
	playerService := services.NewPlayerService(playerRepo, uploader, hub, logger)
	matchService := services.NewMatchService(matchRepo, teamRepo, notifier, uploader, hub, location, logger)
	attendanceService := services.NewAttendanceService(attendanceRepo, matchRepo, memberRepo, hub, logger)
	invitationService := services.NewInvitationService(inviteRepo, teamRepo, memberRepo, mailer, cfg.TelegramBotUsername, location, logger)
	financeService := services.NewFinanceService(financeRepo, location)
	eventService := services.NewEventService(eventRepo, teamRepo, notifier, location, logger)
	leagueTableService := services.NewLeagueTableService(tableRepo, tx)
	statsService := services.NewMatchStatsService(statRepo, matchRepo, playerRepo, tx)
	reminderService := services.NewReminderService(matchRepo, teamRepo, playerRepo, attendanceService, notifier, metrics, location, logger)
	dashboardService := services.NewDashboardService(teamService, playerRepo, matchRepo)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		logger.Info("bootstrap admin ensured", slog.String("username", cfg.AdminUsername))
	}

	// Бот
	if botAPI != nil {
		bot := telegram.NewBot(botAPI, client, telegram.BotServices{
			Teams:       teamService,
			Members:     memberService,
			Matches:     matchService,
			Attendance:  attendanceService,
			Invitations: invitationService,
			Settings:    settingsService,
		}, location, logger)
		if err := bot.RegisterCommands(); err != nil {
			logger.Warn("failed to register bot commands", slog.Any("error", err))
		}
		go bot.Run(ctx)
		logger.Info("Telegram bot started")
	}

	// Планировщик напоминаний
	sched, err := scheduler.New(scheduler.Config{
		ReminderSpec:    cfg.ReminderCron,
		DebtSpec:        cfg.DebtReminderCron,
		InvitePurgeSpec: cfg.InvitePurgeCron,
		Location:        location,
	}, reminderService, invitationService, logger)
	if err != nil {
		return err
	}
	sched.Start()
	logger.Info("scheduler started",
		slog.String("reminders", cfg.ReminderCron),
		slog.String("debts", cfg.DebtReminderCron),
		slog.String("invite_purge", cfg.InvitePurgeCron),
	)

	sessions := middleware.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, logger)

	// Обработчики HTTP
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, teamService, sessions),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		System:      handlers.NewSystemHandler(settingsService, metrics, location),
		Team:        handlers.NewTeamHandler(teamService),
		Member:      handlers.NewMemberHandler(memberService, attendanceService),
		Invite:      handlers.NewInviteHandler(invitationService),
		Player:      handlers.NewPlayerHandler(playerService, statsService),
		Debt:        handlers.NewDebtHandler(playerService, reminderService),
		Match:       handlers.NewMatchHandler(matchService, attendanceService, statsService),
		Finance:     handlers.NewFinanceHandler(financeService, location),
		Event:       handlers.NewEventHandler(eventService, location),
		LeagueTable: handlers.NewLeagueTableHandler(leagueTableService),
		WebSocket:   handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, logger),
	}

	router := chi.NewRouter()
	routes.SetupRoutes(router, h, sessions, teamService, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		cancel()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		// Останавливаем бота, хаб и задачи до закрытия соединения с БД
		cancel()
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler did not stop in time", slog.Any("error", err))
		}

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
