package services

import (
	"context"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context, teamID int) (*models.DashboardStats, error)
}

type dashboardService struct {
	teams      TeamService
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	now        func() time.Time
}

func NewDashboardService(
	teams TeamService,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
) DashboardService {
	return &dashboardService{
		teams:      teams,
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		now:        time.Now,
	}
}

func (s *dashboardService) GetStats(ctx context.Context, teamID int) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{TotalDebt: decimal.Zero}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		team, err := s.teams.Get(gctx, teamID)
		if err != nil {
			return err
		}
		stats.Team = team
		return nil
	})
	g.Go(func() error {
		players, err := s.playerRepo.ListByTeam(gctx, teamID)
		if err != nil {
			return err
		}
		stats.PlayerCount = len(players)
		return nil
	})
	g.Go(func() error {
		debtors, err := s.playerRepo.ListDebtors(gctx, teamID)
		if err != nil {
			return err
		}
		stats.DebtorCount = len(debtors)
		total := decimal.Zero
		for _, p := range debtors {
			total = total.Add(p.Debt)
		}
		stats.TotalDebt = total
		return nil
	})
	g.Go(func() error {
		next, err := s.matchRepo.ListUpcoming(gctx, teamID, s.now(), 1)
		if err != nil {
			return err
		}
		if len(next) > 0 {
			stats.NextMatch = next[0]
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
