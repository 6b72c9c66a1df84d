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
	"github.com/shopspring/decimal"
)

type PlayerInput struct {
	Name       string              `json:"name"`
	Number     *int                `json:"number"`
	TelegramID *string             `json:"telegram_id"`
	Status     models.PlayerStatus `json:"status"`
	Debt       *decimal.Decimal    `json:"debt"`
	IsActive   *bool               `json:"is_active"`
}

func (in PlayerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if in.Number != nil && *in.Number < 0 {
		return fmt.Errorf("%w: number must be non-negative", ErrValidationFailed)
	}
	if in.Status != "" && !in.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlayerStatus, in.Status)
	}
	if in.Debt != nil && in.Debt.IsNegative() {
		return fmt.Errorf("%w: debt must be non-negative", ErrValidationFailed)
	}
	return nil
}

type PlayerService interface {
	List(ctx context.Context, teamID int) ([]*models.Player, error)
	Get(ctx context.Context, teamID, id int) (*models.Player, error)
	Create(ctx context.Context, teamID int, in PlayerInput) (*models.Player, error)
	Update(ctx context.Context, teamID, id int, in PlayerInput) (*models.Player, error)
	Delete(ctx context.Context, teamID, id int) error
	SetStatus(ctx context.Context, teamID, id int, status models.PlayerStatus) (*models.Player, error)

	Debtors(ctx context.Context, teamID int) ([]*models.Player, error)
	// SetDebtByName ищет игрока по имени без учета регистра: сначала точное совпадение, затем вхождение.
	SetDebtByName(ctx context.Context, teamID int, name string, amount decimal.Decimal) (*models.Player, error)
	ClearDebt(ctx context.Context, teamID, id int) (*models.Player, error)

	UploadPhoto(ctx context.Context, teamID, id int, reader io.Reader, contentType string) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	live       LivePublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
	live LivePublisher,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		live:       publisherOrNoop(live),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *playerService) List(ctx context.Context, teamID int) ([]*models.Player, error) {
	players, err := s.playerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		populatePlayerPhotoURLFunc(p, s.uploader)
	}
	return players, nil
}

func (s *playerService) Get(ctx context.Context, teamID, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.TeamID != teamID {
		return nil, ErrPlayerNotFound
	}
	populatePlayerPhotoURLFunc(player, s.uploader)
	return player, nil
}

func mapPlayerRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerTelegramConflict):
		return ErrPlayerTelegramConflict
	case errors.Is(err, repositories.ErrPlayerTeamInvalid):
		return ErrTeamNotFound
	}
	return err
}

func (s *playerService) Create(ctx context.Context, teamID int, in PlayerInput) (*models.Player, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	player := &models.Player{
		TeamID:     teamID,
		Name:       strings.TrimSpace(in.Name),
		Number:     in.Number,
		TelegramID: optionalString(derefString(in.TelegramID)),
		IsActive:   true,
		Status:     models.PlayerStatusActive,
		Debt:       decimal.Zero,
	}
	if in.Status != "" {
		player.Status = in.Status
	}
	if in.Debt != nil {
		player.Debt = *in.Debt
	}
	if in.IsActive != nil {
		player.IsActive = *in.IsActive
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	s.live.Publish(teamID, LiveRosterUpdated, player)
	return player, nil
}

func (s *playerService) Update(ctx context.Context, teamID, id int, in PlayerInput) (*models.Player, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	player, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	player.Name = strings.TrimSpace(in.Name)
	player.Number = in.Number
	if in.TelegramID != nil {
		player.TelegramID = optionalString(*in.TelegramID)
	}
	if in.Status != "" {
		player.Status = in.Status
	}
	if in.Debt != nil {
		player.Debt = *in.Debt
	}
	if in.IsActive != nil {
		player.IsActive = *in.IsActive
	}
	return s.save(ctx, player)
}

func (s *playerService) save(ctx context.Context, player *models.Player) (*models.Player, error) {
	if err := s.playerRepo.Update(ctx, nil, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	s.live.Publish(player.TeamID, LiveRosterUpdated, player)
	return player, nil
}

func (s *playerService) Delete(ctx context.Context, teamID, id int) error {
	player, err := s.Get(ctx, teamID, id)
	if err != nil {
		return err
	}
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return mapPlayerRepoError(err)
	}
	if player.PhotoKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *player.PhotoKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete player photo", slog.Int("player_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *playerService) SetStatus(ctx context.Context, teamID, id int, status models.PlayerStatus) (*models.Player, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayerStatus, status)
	}
	player, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	player.Status = status
	return s.save(ctx, player)
}

func (s *playerService) Debtors(ctx context.Context, teamID int) ([]*models.Player, error) {
	return s.playerRepo.ListDebtors(ctx, teamID)
}

func (s *playerService) SetDebtByName(ctx context.Context, teamID int, name string, amount decimal.Decimal) (*models.Player, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: debt must be non-negative", ErrValidationFailed)
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}

	players, err := s.playerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	player := findPlayerByName(players, needle)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	player.Debt = amount
	return s.save(ctx, player)
}

func findPlayerByName(players []*models.Player, needle string) *models.Player {
	for _, p := range players {
		if strings.ToLower(p.Name) == needle {
			return p
		}
	}
	for _, p := range players {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p
		}
	}
	return nil
}

func (s *playerService) ClearDebt(ctx context.Context, teamID, id int) (*models.Player, error) {
	player, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	player.Debt = decimal.Zero
	return s.save(ctx, player)
}

func (s *playerService) UploadPhoto(ctx context.Context, teamID, id int, reader io.Reader, contentType string) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}
	player, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	key := storage.PlayerPhotoKey(teamID, id, ext, s.now())
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload player photo: %w", err)
	}

	oldKey := player.PhotoKey
	player.PhotoKey = &key
	if _, err := s.save(ctx, player); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded photo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old player photo", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}
	populatePlayerPhotoURLFunc(player, s.uploader)
	return player, nil
}
