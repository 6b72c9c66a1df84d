package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optionalString превращает пустую (после trim) строку в nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// truncateRunes обрезает строку до max символов, не разрезая UTF-8 последовательности.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// stripAt убирает ведущий @ у имени пользователя Telegram.
func stripAt(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// --- Заполнение публичных URL файлов ---

func populateTeamLogoURLFunc(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.LogoKey)
		if url != "" {
			team.LogoURL = &url
		}
	}
}

func populatePlayerPhotoURLFunc(player *models.Player, uploader storage.FileUploader) {
	if player != nil && player.PhotoKey != nil && *player.PhotoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*player.PhotoKey)
		if url != "" {
			player.PhotoURL = &url
		}
	}
}

func populateMatchCardURLFunc(match *models.Match, uploader storage.FileUploader) {
	if match != nil && match.CardKey != nil && *match.CardKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*match.CardKey)
		if url != "" {
			match.CardURL = &url
		}
	}
}

// GetExtensionFromContentType возвращает расширение файла для поддерживаемых изображений.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, contentType)
}
