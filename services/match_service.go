package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/cards"
	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/Alex1231123112/manager/storage"
)

const (
	defaultMatchListLimit = 10
	logoFetchTimeout      = 5 * time.Second
)

type MatchInput struct {
	Opponent string    `json:"opponent"`
	Date     time.Time `json:"date"`
	Location *string   `json:"location"`
}

type MatchUpdate struct {
	Opponent *string    `json:"opponent"`
	Date     *time.Time `json:"date"`
	Location *string    `json:"location"`
}

type MatchService interface {
	Create(ctx context.Context, teamID int, in MatchInput) (*models.Match, error)
	Get(ctx context.Context, teamID, id int) (*models.Match, error)
	// GetByID не проверяет команду; используется в обработке callback бота.
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, teamID int) ([]*models.Match, error)
	Update(ctx context.Context, teamID, id int, upd MatchUpdate) (*models.Match, error)
	Delete(ctx context.Context, teamID, id int) error
	SetResult(ctx context.Context, teamID, id, ourScore, opponentScore int) (*models.Match, error)
	Cancel(ctx context.Context, teamID, id int) (*models.Match, error)

	// Next возвращает ближайший запланированный матч или nil.
	Next(ctx context.Context, teamID int) (*models.Match, error)
	Upcoming(ctx context.Context, teamID, limit int) ([]*models.Match, error)
	Past(ctx context.Context, teamID, limit int) ([]*models.Match, error)
	// PendingResult - последний прошедший матч без результата.
	PendingResult(ctx context.Context, teamID int) (*models.Match, error)

	RenderCard(ctx context.Context, teamID, id int) ([]byte, *models.Match, error)
	SendToChannel(ctx context.Context, teamID, id int) error
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	teamRepo   repositories.TeamRepository
	notifier   Notifier
	uploader   storage.FileUploader
	live       LivePublisher
	httpClient *http.Client
	location   *time.Location
	logger     *slog.Logger
	now        func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	notifier Notifier,
	uploader storage.FileUploader,
	live LivePublisher,
	location *time.Location,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		teamRepo:   teamRepo,
		notifier:   notifier,
		uploader:   uploader,
		live:       publisherOrNoop(live),
		httpClient: &http.Client{Timeout: logoFetchTimeout},
		location:   location,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *matchService) Create(ctx context.Context, teamID int, in MatchInput) (*models.Match, error) {
	opponent := strings.TrimSpace(in.Opponent)
	if opponent == "" {
		return nil, ErrOpponentRequired
	}
	if in.Date.IsZero() {
		return nil, ErrMatchDateRequired
	}

	match := &models.Match{
		TeamID:   teamID,
		Opponent: opponent,
		Date:     in.Date,
		Location: optionalString(derefString(in.Location)),
		Status:   models.MatchStatusScheduled,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "match created", slog.Int("team_id", teamID), slog.Int("match_id", match.ID))
	s.live.Publish(teamID, LiveMatchUpdated, match)
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	populateMatchCardURLFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) Get(ctx context.Context, teamID, id int) (*models.Match, error) {
	match, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Чужой матч не раскрываем.
	if match.TeamID != teamID {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

func (s *matchService) List(ctx context.Context, teamID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		populateMatchCardURLFunc(m, s.uploader)
	}
	return matches, nil
}

func (s *matchService) Update(ctx context.Context, teamID, id int, upd MatchUpdate) (*models.Match, error) {
	match, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	if upd.Opponent != nil {
		opponent := strings.TrimSpace(*upd.Opponent)
		if opponent == "" {
			return nil, ErrOpponentRequired
		}
		match.Opponent = opponent
	}
	if upd.Date != nil {
		if upd.Date.IsZero() {
			return nil, ErrMatchDateRequired
		}
		match.Date = *upd.Date
	}
	if upd.Location != nil {
		match.Location = optionalString(*upd.Location)
	}

	return s.save(ctx, match)
}

func (s *matchService) save(ctx context.Context, match *models.Match) (*models.Match, error) {
	if err := s.matchRepo.Update(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	s.live.Publish(match.TeamID, LiveMatchUpdated, match)
	return match, nil
}

func (s *matchService) Delete(ctx context.Context, teamID, id int) error {
	if _, err := s.Get(ctx, teamID, id); err != nil {
		return err
	}
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	s.logger.InfoContext(ctx, "match deleted", slog.Int("team_id", teamID), slog.Int("match_id", id))
	return nil
}

func (s *matchService) SetResult(ctx context.Context, teamID, id, ourScore, opponentScore int) (*models.Match, error) {
	if ourScore < 0 || opponentScore < 0 {
		return nil, ErrInvalidScore
	}
	match, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	match.OurScore = &ourScore
	match.OpponentScore = &opponentScore
	match.Status = models.MatchStatusCompleted
	return s.save(ctx, match)
}

func (s *matchService) Cancel(ctx context.Context, teamID, id int) (*models.Match, error) {
	match, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}
	match.Status = models.MatchStatusCancelled
	return s.save(ctx, match)
}

func (s *matchService) Next(ctx context.Context, teamID int) (*models.Match, error) {
	matches, err := s.matchRepo.ListUpcoming(ctx, teamID, s.now(), 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func normalizeListLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultMatchListLimit
	}
	return limit
}

func (s *matchService) Upcoming(ctx context.Context, teamID, limit int) ([]*models.Match, error) {
	return s.matchRepo.ListUpcoming(ctx, teamID, s.now(), normalizeListLimit(limit))
}

func (s *matchService) Past(ctx context.Context, teamID, limit int) ([]*models.Match, error) {
	return s.matchRepo.ListPast(ctx, teamID, s.now(), normalizeListLimit(limit))
}

func (s *matchService) PendingResult(ctx context.Context, teamID int) (*models.Match, error) {
	matches, err := s.matchRepo.ListPast(ctx, teamID, s.now(), defaultMatchListLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Status == models.MatchStatusScheduled {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (s *matchService) RenderCard(ctx context.Context, teamID, id int) ([]byte, *models.Match, error) {
	match, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, nil, err
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	png, err := cards.RenderMatchCard(cards.MatchCard{
		TeamName:      team.Name,
		Opponent:      match.Opponent,
		OurScore:      match.OurScore,
		OpponentScore: match.OpponentScore,
		DateText:      FormatMatchDate(match.Date, s.location),
		Location:      derefString(match.Location),
		Logo:          s.fetchLogo(ctx, team),
	})
	if err != nil {
		return nil, nil, err
	}

	if s.uploader != nil {
		key := storage.MatchCardKey(teamID, match.ID, s.now())
		if _, err := s.uploader.Upload(ctx, key, "image/png", bytes.NewReader(png)); err != nil {
			s.logger.WarnContext(ctx, "failed to upload match card", slog.Int("match_id", match.ID), slog.Any("error", err))
		} else {
			oldKey := match.CardKey
			if err := s.matchRepo.SetCardKey(ctx, match.ID, &key); err != nil {
				s.logger.WarnContext(ctx, "failed to save match card key", slog.Int("match_id", match.ID), slog.Any("error", err))
			} else {
				match.CardKey = &key
				populateMatchCardURLFunc(match, s.uploader)
				if oldKey != nil && *oldKey != "" {
					if err := s.uploader.Delete(ctx, *oldKey); err != nil {
						s.logger.WarnContext(ctx, "failed to delete old match card", slog.String("key", *oldKey), slog.Any("error", err))
					}
				}
			}
		}
	}
	return png, match, nil
}

// fetchLogo скачивает логотип команды; при любой ошибке карточка рисуется без него.
func (s *matchService) fetchLogo(ctx context.Context, team *models.Team) image.Image {
	populateTeamLogoURLFunc(team, s.uploader)
	if team.LogoURL == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *team.LogoURL, nil)
	if err != nil {
		return nil
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to fetch team logo", slog.Int("team_id", team.ID), slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	img, err := cards.DecodeImage(resp.Body)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to decode team logo", slog.Int("team_id", team.ID), slog.Any("error", err))
		return nil
	}
	return img
}

func (s *matchService) SendToChannel(ctx context.Context, teamID, id int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	channelID := team.ChannelID()
	if channelID == "" {
		return ErrChannelNotConfigured
	}

	png, match, err := s.RenderCard(ctx, teamID, id)
	if err != nil {
		return err
	}
	meta := matchMeta(models.EventChannelPost, teamID, match.ID)
	return s.notifier.SendPhoto(ctx, models.OutgoingPhoto{
		ChatID:   channelID,
		FileName: fmt.Sprintf("match_%d.png", match.ID),
		Data:     png,
		Caption:  MatchPostText(match),
	}, meta)
}
