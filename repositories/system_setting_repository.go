package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Alex1231123112/manager/models"
)

var ErrSettingNotFound = errors.New("system setting not found")

// SystemSettingRepository - хранилище глобальных настроек ключ-значение.
type SystemSettingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Set(ctx context.Context, setting *models.SystemSetting) error
}

type postgresSystemSettingRepository struct {
	db *sql.DB
}

func NewPostgresSystemSettingRepository(db *sql.DB) SystemSettingRepository {
	return &postgresSystemSettingRepository{db: db}
}

func (r *postgresSystemSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting := &models.SystemSetting{}
	err := r.db.QueryRowContext(ctx, `SELECT key, value FROM system_settings WHERE key = $1`, key).
		Scan(&setting.Key, &setting.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return setting, nil
}

func (r *postgresSystemSettingRepository) Set(ctx context.Context, setting *models.SystemSetting) error {
	query := `
		INSERT INTO system_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	_, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value)
	return err
}
