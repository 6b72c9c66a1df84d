package models

const (
	SettingAdminTelegramID       = "admin_telegram_id"
	SettingAdminTelegramUsername = "admin_telegram_username"
)

type SystemSetting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}

type SystemSettings struct {
	AdminTelegramID       string `json:"admin_telegram_id"`
	AdminTelegramUsername string `json:"admin_telegram_username"`
}
