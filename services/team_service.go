package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/Alex1231123112/manager/storage"
)

type TeamService interface {
	List(ctx context.Context) ([]*models.Team, error)
	Get(ctx context.Context, id int) (*models.Team, error)
	// Create создает команду, привязанную к чату. Создатель (если указан) становится админом.
	Create(ctx context.Context, name, chatID string, creator *TelegramUser) (*models.Team, error)
	ResolveByChat(ctx context.Context, chatID string) (*models.Team, error)
	UpdateChats(ctx context.Context, teamID int, channelID, groupChatID string) (*models.Team, error)
	UploadLogo(ctx context.Context, teamID int, reader io.Reader, contentType string) (*models.Team, error)
	// Broadcast отправляет произвольный текст в чат команды.
	Broadcast(ctx context.Context, teamID int, text string) error
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	tx         repositories.Transactor
	notifier   Notifier
	uploader   storage.FileUploader
	logger     *slog.Logger
	now        func() time.Time
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	tx repositories.Transactor,
	notifier Notifier,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		tx:         tx,
		notifier:   notifier,
		uploader:   uploader,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *teamService) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		populateTeamLogoURLFunc(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) Get(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	populateTeamLogoURLFunc(team, s.uploader)
	return team, nil
}

func (s *teamService) Create(ctx context.Context, name, chatID string, creator *TelegramUser) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{
		Name:           name,
		TelegramChatID: optionalString(chatID),
	}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}
		if creator == nil || strings.TrimSpace(creator.ID) == "" {
			return nil
		}
		return s.memberRepo.Upsert(ctx, exec, &models.TeamMember{
			TeamID:           team.ID,
			TelegramUserID:   strings.TrimSpace(creator.ID),
			TelegramUsername: optionalString(stripAt(creator.Username)),
			DisplayName:      optionalString(creator.DisplayName),
			Role:             models.RoleAdmin,
			IsActive:         true,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamChatConflict) {
			return nil, ErrTeamChatConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.InfoContext(ctx, "team created", slog.Int("team_id", team.ID), slog.String("name", team.Name))
	return team, nil
}

func (s *teamService) ResolveByChat(ctx context.Context, chatID string) (*models.Team, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, ErrTeamNotFound
	}
	team, err := s.teamRepo.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) UpdateChats(ctx context.Context, teamID int, channelID, groupChatID string) (*models.Team, error) {
	channel := optionalString(channelID)
	if channel != nil && !strings.HasPrefix(*channel, "@") {
		normalized := models.NormalizeGroupChatID(*channel)
		channel = &normalized
	}
	group := optionalString(groupChatID)
	if group != nil {
		normalized := models.NormalizeGroupChatID(*group)
		group = &normalized
	}

	if err := s.teamRepo.UpdateChats(ctx, teamID, channel, group); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		if errors.Is(err, repositories.ErrTeamChatConflict) {
			return nil, ErrTeamChatConflict
		}
		return nil, err
	}
	return s.Get(ctx, teamID)
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, reader io.Reader, contentType string) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}
	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	key := storage.TeamLogoKey(teamID, ext, s.now())
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}
	if err := s.teamRepo.UpdateLogo(ctx, teamID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded logo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}
	if team.LogoKey != nil && *team.LogoKey != "" {
		if err := s.uploader.Delete(ctx, *team.LogoKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old team logo", slog.String("key", *team.LogoKey), slog.Any("error", err))
		}
	}

	team.LogoKey = &key
	team.LogoURL = nil
	populateTeamLogoURLFunc(team, s.uploader)
	return team, nil
}

func (s *teamService) Broadcast(ctx context.Context, teamID int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: text is required", ErrValidationFailed)
	}
	team, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	chatID := team.NotificationChatID()
	if chatID == "" {
		return ErrChatNotConfigured
	}
	return s.notifier.SendMessage(ctx, models.OutgoingMessage{ChatID: chatID, Text: text}, teamMeta(models.EventBotMessage, teamID))
}
