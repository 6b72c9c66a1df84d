package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

type LeagueTableService interface {
	List(ctx context.Context, teamID int) ([]*models.LeagueTableRow, error)
	// Replace заменяет таблицу целиком. Позиции без значения нумеруются по порядку строк.
	Replace(ctx context.Context, teamID int, rows []*models.LeagueTableRow) ([]*models.LeagueTableRow, error)
}

type leagueTableService struct {
	tableRepo repositories.LeagueTableRepository
	tx        repositories.Transactor
}

func NewLeagueTableService(tableRepo repositories.LeagueTableRepository, tx repositories.Transactor) LeagueTableService {
	return &leagueTableService{tableRepo: tableRepo, tx: tx}
}

func (s *leagueTableService) List(ctx context.Context, teamID int) ([]*models.LeagueTableRow, error) {
	return s.tableRepo.ListByTeam(ctx, teamID)
}

func (s *leagueTableService) Replace(ctx context.Context, teamID int, rows []*models.LeagueTableRow) ([]*models.LeagueTableRow, error) {
	clean := make([]*models.LeagueTableRow, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		row.TeamName = strings.TrimSpace(row.TeamName)
		if row.TeamName == "" {
			return nil, fmt.Errorf("%w: row %d has no team name", ErrValidationFailed, i+1)
		}
		if row.Wins < 0 || row.Losses < 0 {
			return nil, fmt.Errorf("%w: row %d has negative wins or losses", ErrValidationFailed, i+1)
		}
		if row.Position <= 0 {
			row.Position = len(clean) + 1
		}
		clean = append(clean, row)
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tableRepo.ReplaceForTeam(ctx, exec, teamID, clean)
	})
	if err != nil {
		return nil, err
	}
	return clean, nil
}
