package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/shopspring/decimal"
)

// RoleError - недостаточно прав; Required хранит требуемую роль.
type RoleError struct {
	Required models.Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%s: %s role required", ErrInsufficientRole, e.Required)
}

func (e *RoleError) Unwrap() error {
	return ErrInsufficientRole
}

// TelegramUser - пользователь Telegram, от имени которого пришла команда.
type TelegramUser struct {
	ID          string
	Username    string
	DisplayName string
}

// MemberUpdate - частичное обновление участника. nil поля не меняются.
type MemberUpdate struct {
	DisplayName *string              `json:"display_name"`
	Username    *string              `json:"telegram_username"`
	Role        *models.Role         `json:"role"`
	IsActive    *bool                `json:"is_active"`
	Number      *int                 `json:"number"`
	Status      *models.PlayerStatus `json:"status"`
	Debt        *decimal.Decimal     `json:"debt"`
}

func (u MemberUpdate) touchesPlayer() bool {
	return u.Number != nil || u.Status != nil || u.Debt != nil
}

type MemberService interface {
	// EffectiveRole возвращает роль пользователя в команде. Пустая роль - не участник.
	EffectiveRole(ctx context.Context, teamID int, telegramUserID string) (models.Role, error)
	RequireAtLeast(ctx context.Context, teamID int, telegramUserID string, required models.Role) error
	CanUseBot(ctx context.Context, teamID int, telegramUserID string) (bool, error)

	List(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	Get(ctx context.Context, teamID int, telegramUserID string) (*models.TeamMember, error)
	Update(ctx context.Context, teamID int, telegramUserID string, upd MemberUpdate) (*models.TeamMember, error)
	SetRole(ctx context.Context, teamID int, telegramUserID string, role models.Role) (*models.TeamMember, error)
	Leave(ctx context.Context, teamID int, telegramUserID string) error
	// FirstMembership - самое раннее активное членство пользователя (для личных чатов с ботом).
	FirstMembership(ctx context.Context, telegramUserID string) (*models.TeamMember, error)
}

type memberService struct {
	memberRepo repositories.MemberRepository
	playerRepo repositories.PlayerRepository
	tx         repositories.Transactor
	live       LivePublisher
	logger     *slog.Logger
}

func NewMemberService(
	memberRepo repositories.MemberRepository,
	playerRepo repositories.PlayerRepository,
	tx repositories.Transactor,
	live LivePublisher,
	logger *slog.Logger,
) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		playerRepo: playerRepo,
		tx:         tx,
		live:       publisherOrNoop(live),
		logger:     logger,
	}
}

func (s *memberService) EffectiveRole(ctx context.Context, teamID int, telegramUserID string) (models.Role, error) {
	total, err := s.memberRepo.CountByTeam(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("failed to count members of team %d: %w", teamID, err)
	}
	// Команда без участников: любой пользователь считается админом (первичная настройка).
	if total == 0 {
		return models.RoleAdmin, nil
	}

	member, err := s.memberRepo.GetByTeamAndUser(ctx, teamID, telegramUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return "", nil
		}
		return "", err
	}
	if !member.IsActive {
		return "", nil
	}
	return member.Role, nil
}

func (s *memberService) RequireAtLeast(ctx context.Context, teamID int, telegramUserID string, required models.Role) error {
	if required == "" {
		required = models.RolePlayer
	}
	role, err := s.EffectiveRole(ctx, teamID, telegramUserID)
	if err != nil {
		return err
	}
	if !role.AtLeast(required) {
		return &RoleError{Required: required}
	}
	return nil
}

func (s *memberService) CanUseBot(ctx context.Context, teamID int, telegramUserID string) (bool, error) {
	role, err := s.EffectiveRole(ctx, teamID, telegramUserID)
	if err != nil {
		return false, err
	}
	return role.IsValid(), nil
}

func (s *memberService) List(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	players, err := s.playerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	byTelegram := make(map[string]*models.Player, len(players))
	for _, p := range players {
		if p.TelegramID != nil {
			byTelegram[*p.TelegramID] = p
		}
	}
	for _, m := range members {
		m.Player = byTelegram[m.TelegramUserID]
	}
	return members, nil
}

func (s *memberService) Get(ctx context.Context, teamID int, telegramUserID string) (*models.TeamMember, error) {
	member, err := s.memberRepo.GetByTeamAndUser(ctx, teamID, telegramUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	player, err := s.playerRepo.GetByTelegramID(ctx, teamID, telegramUserID)
	if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil, err
	}
	member.Player = player
	return member, nil
}

func (s *memberService) Update(ctx context.Context, teamID int, telegramUserID string, upd MemberUpdate) (*models.TeamMember, error) {
	if upd.Role != nil && !upd.Role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, *upd.Role)
	}
	if upd.Status != nil && !upd.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayerStatus, *upd.Status)
	}
	if upd.Number != nil && *upd.Number < 0 {
		return nil, fmt.Errorf("%w: number must be non-negative", ErrValidationFailed)
	}
	if upd.Debt != nil && upd.Debt.IsNegative() {
		return nil, fmt.Errorf("%w: debt must be non-negative", ErrValidationFailed)
	}

	member, err := s.Get(ctx, teamID, telegramUserID)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		member.DisplayName = optionalString(*upd.DisplayName)
	}
	if upd.Username != nil {
		member.TelegramUsername = optionalString(stripAt(*upd.Username))
	}
	if upd.Role != nil {
		member.Role = *upd.Role
	}
	if upd.IsActive != nil {
		member.IsActive = *upd.IsActive
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.memberRepo.Update(ctx, exec, member); err != nil {
			return err
		}
		if !upd.touchesPlayer() && member.Player == nil {
			return nil
		}

		player := member.Player
		if player == nil {
			tgID := member.TelegramUserID
			player = &models.Player{
				TeamID:     teamID,
				Name:       member.Name(),
				TelegramID: &tgID,
				Status:     models.PlayerStatusActive,
				Debt:       decimal.Zero,
			}
		} else if upd.DisplayName != nil {
			player.Name = member.Name()
		}
		player.IsActive = member.IsActive
		if upd.Number != nil {
			n := *upd.Number
			player.Number = &n
		}
		if upd.Status != nil {
			player.Status = *upd.Status
		}
		if upd.Debt != nil {
			player.Debt = *upd.Debt
		}
		if err := s.playerRepo.UpsertByTelegramID(ctx, exec, player); err != nil {
			return err
		}
		member.Player = player
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member %s: %w", telegramUserID, err)
	}

	s.live.Publish(teamID, LiveRosterUpdated, member)
	return member, nil
}

func (s *memberService) SetRole(ctx context.Context, teamID int, telegramUserID string, role models.Role) (*models.TeamMember, error) {
	return s.Update(ctx, teamID, strings.TrimSpace(telegramUserID), MemberUpdate{Role: &role})
}

func (s *memberService) Leave(ctx context.Context, teamID int, telegramUserID string) error {
	inactive := false
	if _, err := s.Update(ctx, teamID, telegramUserID, MemberUpdate{IsActive: &inactive}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member left the team", slog.Int("team_id", teamID), slog.String("telegram_user_id", telegramUserID))
	return nil
}

func (s *memberService) FirstMembership(ctx context.Context, telegramUserID string) (*models.TeamMember, error) {
	member, err := s.memberRepo.FindFirstActiveByUser(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}
