package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

type MatchStatsService interface {
	// Save сохраняет строки статистики матча. Матч и игроки должны принадлежать команде.
	Save(ctx context.Context, teamID, matchID int, stats []*models.MatchPlayerStat) ([]*models.MatchPlayerStat, error)
	List(ctx context.Context, teamID, matchID int) ([]*models.MatchPlayerStat, error)
	// MVP возвращает отмеченного MVP, иначе самого результативного игрока. nil - статистики нет.
	MVP(ctx context.Context, teamID, matchID int) (*models.MatchPlayerStat, error)
	SeasonAverages(ctx context.Context, teamID, playerID int) (*models.SeasonAverages, error)
}

type matchStatsService struct {
	statRepo   repositories.MatchStatRepository
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	tx         repositories.Transactor
}

func NewMatchStatsService(
	statRepo repositories.MatchStatRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	tx repositories.Transactor,
) MatchStatsService {
	return &matchStatsService{
		statRepo:   statRepo,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		tx:         tx,
	}
}

func (s *matchStatsService) teamMatch(ctx context.Context, teamID, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.TeamID != teamID {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

func (s *matchStatsService) Save(ctx context.Context, teamID, matchID int, stats []*models.MatchPlayerStat) ([]*models.MatchPlayerStat, error) {
	if _, err := s.teamMatch(ctx, teamID, matchID); err != nil {
		return nil, err
	}
	players, err := s.playerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	for _, st := range stats {
		name, ok := names[st.PlayerID]
		if !ok {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerNotFound, st.PlayerID)
		}
		if st.Points < 0 || st.Rebounds < 0 || st.Assists < 0 || st.Fouls < 0 || (st.Minutes != nil && *st.Minutes < 0) {
			return nil, fmt.Errorf("%w: negative stats for player %d", ErrValidationFailed, st.PlayerID)
		}
		st.MatchID = matchID
		st.PlayerName = name
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, st := range stats {
			if err := s.statRepo.Upsert(ctx, exec, st); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *matchStatsService) List(ctx context.Context, teamID, matchID int) ([]*models.MatchPlayerStat, error) {
	if _, err := s.teamMatch(ctx, teamID, matchID); err != nil {
		return nil, err
	}
	return s.statRepo.ListByMatch(ctx, matchID)
}

func (s *matchStatsService) MVP(ctx context.Context, teamID, matchID int) (*models.MatchPlayerStat, error) {
	stats, err := s.List(ctx, teamID, matchID)
	if err != nil {
		return nil, err
	}
	var best *models.MatchPlayerStat
	for _, st := range stats {
		if st.MVP {
			return st, nil
		}
		if best == nil || st.Points > best.Points {
			best = st
		}
	}
	return best, nil
}

func (s *matchStatsService) SeasonAverages(ctx context.Context, teamID, playerID int) (*models.SeasonAverages, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.TeamID != teamID {
		return nil, ErrPlayerNotFound
	}

	stats, err := s.statRepo.ListCompletedByPlayer(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}
	return averages(stats), nil
}

func averages(stats []*models.MatchPlayerStat) *models.SeasonAverages {
	avg := &models.SeasonAverages{Games: len(stats)}
	if len(stats) == 0 {
		return avg
	}
	var points, rebounds, assists, minutes, minuteGames int
	for _, st := range stats {
		points += st.Points
		rebounds += st.Rebounds
		assists += st.Assists
		if st.Minutes != nil {
			minutes += *st.Minutes
			minuteGames++
		}
	}
	games := float64(len(stats))
	avg.PointsAvg = round1(float64(points) / games)
	avg.ReboundsAvg = round1(float64(rebounds) / games)
	avg.AssistsAvg = round1(float64(assists) / games)
	if minuteGames > 0 {
		avg.MinutesAvg = round1(float64(minutes) / float64(minuteGames))
	}
	return avg
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
