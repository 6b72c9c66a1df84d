package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/cards"
	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/google/uuid"
)

const (
	inviteCodeLength      = 12
	inviteCodeMaxAttempts = 10
	defaultInviteTTLDays  = 7
	maxInviteTTLDays      = 365
	defaultBotUsername    = "BasketBot"
)

var ErrInviteCodeGeneration = errors.New("failed to generate unique invitation code")

// RedeemResult - итог присоединения к команде по приглашению.
type RedeemResult struct {
	Team   *models.Team
	Role   models.Role
	Member *models.TeamMember
}

type InvitationService interface {
	// Create выпускает приглашение. ttlDays ограничивается диапазоном [1, 365], 0 - 7 дней.
	Create(ctx context.Context, teamID int, role models.Role, ttlDays int) (*models.Invitation, error)
	// Redeem присоединяет пользователя к команде. Приглашение многоразовое до истечения срока.
	Redeem(ctx context.Context, code string, user TelegramUser) (*RedeemResult, error)
	ListActive(ctx context.Context, teamID int) ([]*models.Invitation, error)
	FindByCode(ctx context.Context, code string) (*models.Invitation, error)
	Revoke(ctx context.Context, teamID int, code string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	BuildInviteLink(code string) string
	QRCode(ctx context.Context, teamID int, code string) ([]byte, *models.Invitation, error)
	SendByEmail(ctx context.Context, teamID int, code, email string) error
}

type invitationService struct {
	inviteRepo  repositories.InvitationRepository
	teamRepo    repositories.TeamRepository
	memberRepo  repositories.MemberRepository
	mailer      InviteMailer
	botUsername string
	location    *time.Location
	logger      *slog.Logger
	now         func() time.Time
	newCode     func() string
}

func NewInvitationService(
	inviteRepo repositories.InvitationRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	mailer InviteMailer,
	botUsername string,
	location *time.Location,
	logger *slog.Logger,
) InvitationService {
	botUsername = stripAt(botUsername)
	if botUsername == "" {
		botUsername = defaultBotUsername
	}
	return &invitationService{
		inviteRepo:  inviteRepo,
		teamRepo:    teamRepo,
		memberRepo:  memberRepo,
		mailer:      mailer,
		botUsername: botUsername,
		location:    location,
		logger:      logger,
		now:         time.Now,
		newCode:     generateInviteCode,
	}
}

func generateInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:inviteCodeLength]
}

func clampInviteTTL(days int) int {
	switch {
	case days <= 0:
		return defaultInviteTTLDays
	case days > maxInviteTTLDays:
		return maxInviteTTLDays
	}
	return days
}

func (s *invitationService) Create(ctx context.Context, teamID int, role models.Role, ttlDays int) (*models.Invitation, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if !role.IsValid() {
		role = models.RolePlayer
	}

	expiresAt := s.now().Add(time.Duration(clampInviteTTL(ttlDays)) * 24 * time.Hour)

	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		invitation := &models.Invitation{
			Code:      s.newCode(),
			TeamID:    teamID,
			Role:      role,
			ExpiresAt: expiresAt,
		}
		err := s.inviteRepo.Create(ctx, invitation)
		if err == nil {
			invitation.Link = s.BuildInviteLink(invitation.Code)
			s.logger.InfoContext(ctx, "invitation created",
				slog.Int("team_id", teamID),
				slog.String("role", string(role)),
				slog.Time("expires_at", expiresAt),
			)
			return invitation, nil
		}
		if errors.Is(err, repositories.ErrInvitationCodeConflict) {
			continue
		}
		if errors.Is(err, repositories.ErrInvitationTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil, ErrInviteCodeGeneration
}

func (s *invitationService) FindByCode(ctx context.Context, code string) (*models.Invitation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvitationNotFound
	}
	invitation, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	invitation.Link = s.BuildInviteLink(invitation.Code)
	return invitation, nil
}

func (s *invitationService) Redeem(ctx context.Context, code string, user TelegramUser) (*RedeemResult, error) {
	invitation, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invitation.IsExpired(s.now()) {
		return nil, ErrInvitationExpired
	}

	userID := strings.TrimSpace(user.ID)
	if userID == "" {
		return nil, fmt.Errorf("%w: telegram user id is required", ErrValidationFailed)
	}

	team, err := s.teamRepo.GetByID(ctx, invitation.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	member := &models.TeamMember{
		TeamID:           invitation.TeamID,
		TelegramUserID:   userID,
		TelegramUsername: optionalString(stripAt(user.Username)),
		DisplayName:      optionalString(user.DisplayName),
		Role:             invitation.Role,
		IsActive:         true,
	}
	if err := s.memberRepo.Upsert(ctx, nil, member); err != nil {
		return nil, fmt.Errorf("failed to add member to team %d: %w", invitation.TeamID, err)
	}

	s.logger.InfoContext(ctx, "invitation redeemed",
		slog.Int("team_id", team.ID),
		slog.String("telegram_user_id", userID),
		slog.String("role", string(invitation.Role)),
	)
	return &RedeemResult{Team: team, Role: invitation.Role, Member: member}, nil
}

func (s *invitationService) ListActive(ctx context.Context, teamID int) ([]*models.Invitation, error) {
	invitations, err := s.inviteRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]*models.Invitation, 0, len(invitations))
	for _, inv := range invitations {
		if inv.IsExpired(now) {
			continue
		}
		inv.Link = s.BuildInviteLink(inv.Code)
		active = append(active, inv)
	}
	return active, nil
}

func (s *invitationService) Revoke(ctx context.Context, teamID int, code string) error {
	err := s.inviteRepo.DeleteByTeamAndCode(ctx, teamID, strings.TrimSpace(code))
	if errors.Is(err, repositories.ErrInvitationNotFound) {
		return ErrInvitationNotFound
	}
	return err
}

func (s *invitationService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.inviteRepo.DeleteExpired(ctx, now)
}

func (s *invitationService) BuildInviteLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, code)
}

// teamInvitation ищет действующее приглашение, принадлежащее команде.
func (s *invitationService) teamInvitation(ctx context.Context, teamID int, code string) (*models.Invitation, error) {
	invitation, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invitation.TeamID != teamID {
		return nil, ErrInvitationNotFound
	}
	if invitation.IsExpired(s.now()) {
		return nil, ErrInvitationExpired
	}
	return invitation, nil
}

func (s *invitationService) QRCode(ctx context.Context, teamID int, code string) ([]byte, *models.Invitation, error) {
	invitation, err := s.teamInvitation(ctx, teamID, code)
	if err != nil {
		return nil, nil, err
	}
	png, err := cards.InviteQR(invitation.Link)
	if err != nil {
		return nil, nil, err
	}
	return png, invitation, nil
}

func (s *invitationService) SendByEmail(ctx context.Context, teamID int, code, email string) error {
	if s.mailer == nil {
		return ErrEmailDisabled
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("%w: invalid email: %w", ErrValidationFailed, err)
	}

	invitation, err := s.teamInvitation(ctx, teamID, code)
	if err != nil {
		return err
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}

	expires := invitation.ExpiresAt
	if s.location != nil {
		expires = expires.In(s.location)
	}
	data := InviteEmailData{
		TeamName:   team.Name,
		RoleLabel:  RoleLabel(invitation.Role),
		InviteLink: invitation.Link,
		ExpiresAt:  expires.Format("02.01.2006 15:04"),
	}
	if err := s.mailer.SendTeamInviteEmail(addr.Address, data); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	s.logger.InfoContext(ctx, "invitation sent by email", slog.Int("team_id", teamID))
	return nil
}

// RoleLabel - название роли для пользователей.
func RoleLabel(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "админ"
	case models.RoleCaptain:
		return "капитан"
	default:
		return "игрок"
	}
}
