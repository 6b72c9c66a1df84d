package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

type SettingsService interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
	Update(ctx context.Context, settings models.SystemSettings) (*models.SystemSettings, error)
	// CanCreateTeamWithoutInvite - является ли пользователь системным админом бота.
	CanCreateTeamWithoutInvite(ctx context.Context, telegramUserID, username string) (bool, error)
}

type settingsService struct {
	settingRepo repositories.SystemSettingRepository
}

func NewSettingsService(settingRepo repositories.SystemSettingRepository) SettingsService {
	return &settingsService{settingRepo: settingRepo}
}

func (s *settingsService) value(ctx context.Context, key string) (string, error) {
	setting, err := s.settingRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (s *settingsService) Get(ctx context.Context) (*models.SystemSettings, error) {
	id, err := s.value(ctx, models.SettingAdminTelegramID)
	if err != nil {
		return nil, err
	}
	username, err := s.value(ctx, models.SettingAdminTelegramUsername)
	if err != nil {
		return nil, err
	}
	return &models.SystemSettings{AdminTelegramID: id, AdminTelegramUsername: username}, nil
}

func (s *settingsService) Update(ctx context.Context, settings models.SystemSettings) (*models.SystemSettings, error) {
	updated := models.SystemSettings{
		AdminTelegramID:       strings.TrimSpace(settings.AdminTelegramID),
		AdminTelegramUsername: stripAt(settings.AdminTelegramUsername),
	}
	if err := s.settingRepo.Set(ctx, &models.SystemSetting{Key: models.SettingAdminTelegramID, Value: updated.AdminTelegramID}); err != nil {
		return nil, err
	}
	if err := s.settingRepo.Set(ctx, &models.SystemSetting{Key: models.SettingAdminTelegramUsername, Value: updated.AdminTelegramUsername}); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *settingsService) CanCreateTeamWithoutInvite(ctx context.Context, telegramUserID, username string) (bool, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	if settings.AdminTelegramID != "" && strings.TrimSpace(telegramUserID) == settings.AdminTelegramID {
		return true, nil
	}
	username = stripAt(username)
	if settings.AdminTelegramUsername != "" && username != "" && strings.EqualFold(username, settings.AdminTelegramUsername) {
		return true, nil
	}
	return false, nil
}
