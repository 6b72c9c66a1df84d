package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	ServerPort  int    `yaml:"server_port"`
	LogLevel    string `yaml:"log_level"`
	Timezone    string `yaml:"timezone"`

	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	CookieSecure  bool          `yaml:"cookie_secure"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	TelegramBotToken    string `yaml:"telegram_bot_token"`
	TelegramBotUsername string `yaml:"telegram_bot_username"`

	ReminderCron     string `yaml:"reminder_cron"`
	DebtReminderCron string `yaml:"debt_reminder_cron"`
	InvitePurgeCron  string `yaml:"invite_purge_cron"`

	R2AccountID       string `yaml:"r2_account_id"`
	R2AccessKeyID     string `yaml:"r2_access_key_id"`
	R2SecretAccessKey string `yaml:"r2_secret_access_key"`
	R2BucketName      string `yaml:"r2_bucket_name"`
	R2PublicBaseURL   string `yaml:"r2_public_base_url"`

	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	SMTPFrom string `yaml:"smtp_from"`
}

func defaults() Config {
	return Config{
		ServerPort:          8080,
		LogLevel:            "info",
		Timezone:            "Europe/Moscow",
		SessionTTL:          12 * time.Hour,
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		TelegramBotUsername: "BasketBot",
		ReminderCron:        "0 */15 * * * *",
		DebtReminderCron:    "0 0 10 * * MON",
		InvitePurgeCron:     "0 5 * * * *",
		SMTPPort:            587,
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML-файл (если путь задан),
// затем переменные окружения. Опционально подгружает .env файл.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.AdminUsername, "ADMIN_USERNAME")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.TelegramBotUsername, "TELEGRAM_BOT_USERNAME")
	setString(&cfg.ReminderCron, "REMINDER_CRON")
	setString(&cfg.DebtReminderCron, "DEBT_REMINDER_CRON")
	setString(&cfg.InvitePurgeCron, "INVITE_PURGE_CRON")
	setString(&cfg.R2AccountID, "R2_ACCOUNT_ID")
	setString(&cfg.R2AccessKeyID, "R2_ACCESS_KEY_ID")
	setString(&cfg.R2SecretAccessKey, "R2_SECRET_ACCESS_KEY")
	setString(&cfg.R2BucketName, "R2_BUCKET_NAME")
	setString(&cfg.R2PublicBaseURL, "R2_PUBLIC_BASE_URL")
	setString(&cfg.SMTPHost, "SMTP_HOST")
	setString(&cfg.SMTPUser, "SMTP_USER")
	setString(&cfg.SMTPPass, "SMTP_PASS")
	setString(&cfg.SMTPFrom, "SMTP_FROM")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		cfg.ServerPort = port
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
		}
		cfg.SMTPPort = port
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL environment variable: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE environment variable: %w", err)
		}
		cfg.CookieSecure = secure
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location возвращает часовой пояс команды для вывода дат в сообщениях.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
