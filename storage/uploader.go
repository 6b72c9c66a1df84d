package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// Ключи объектов. Метка времени в имени сбрасывает кэш CDN при замене файла.

func TeamLogoKey(teamID int, ext string, now time.Time) string {
	return path.Join("teams", fmt.Sprint(teamID), fmt.Sprintf("logo_%d%s", now.Unix(), ext))
}

func PlayerPhotoKey(teamID, playerID int, ext string, now time.Time) string {
	return path.Join("teams", fmt.Sprint(teamID), "players", fmt.Sprintf("%d_%d%s", playerID, now.Unix(), ext))
}

func MatchCardKey(teamID, matchID int, now time.Time) string {
	return path.Join("teams", fmt.Sprint(teamID), "cards", fmt.Sprintf("match_%d_%d.png", matchID, now.Unix()))
}
