package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

const memberAttendanceLimit = 20

type AttendanceService interface {
	// Record сохраняет ответ участника на матч и возвращает матч.
	Record(ctx context.Context, matchID int, telegramUserID string, status models.AttendanceStatus) (*models.Match, error)
	MatchView(ctx context.Context, teamID, matchID int) (*models.MatchAttendance, error)
	Counts(ctx context.Context, match *models.Match) (models.AttendanceCounts, error)
	// MemberView - предстоящие матчи команды с ответом участника.
	MemberView(ctx context.Context, teamID int, telegramUserID string) ([]models.MemberAttendance, error)
}

type attendanceService struct {
	attendanceRepo repositories.AttendanceRepository
	matchRepo      repositories.MatchRepository
	memberRepo     repositories.MemberRepository
	live           LivePublisher
	logger         *slog.Logger
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repositories.AttendanceRepository,
	matchRepo repositories.MatchRepository,
	memberRepo repositories.MemberRepository,
	live LivePublisher,
	logger *slog.Logger,
) AttendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		matchRepo:      matchRepo,
		memberRepo:     memberRepo,
		live:           publisherOrNoop(live),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *attendanceService) getMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *attendanceService) Record(ctx context.Context, matchID int, telegramUserID string, status models.AttendanceStatus) (*models.Match, error) {
	if _, ok := models.ParseAttendanceStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAttendance, status)
	}
	telegramUserID = strings.TrimSpace(telegramUserID)
	if telegramUserID == "" {
		return nil, fmt.Errorf("%w: telegram user id is required", ErrValidationFailed)
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}

	attendance := &models.EventAttendance{
		MatchID:        matchID,
		TelegramUserID: telegramUserID,
		Status:         status,
	}
	if err := s.attendanceRepo.Upsert(ctx, attendance); err != nil {
		if errors.Is(err, repositories.ErrAttendanceMatchInvalid) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	s.logger.DebugContext(ctx, "attendance recorded",
		slog.Int("match_id", matchID),
		slog.String("telegram_user_id", telegramUserID),
		slog.String("status", string(status)),
	)
	s.live.Publish(match.TeamID, LiveAttendanceUpdated, attendance)
	return match, nil
}

func (s *attendanceService) Counts(ctx context.Context, match *models.Match) (models.AttendanceCounts, error) {
	var counts models.AttendanceCounts
	byStatus, err := s.attendanceRepo.CountByMatch(ctx, match.ID)
	if err != nil {
		return counts, err
	}
	active, err := s.memberRepo.CountActiveByTeam(ctx, match.TeamID)
	if err != nil {
		return counts, err
	}

	counts.Coming = byStatus[models.AttendanceComing]
	counts.Late = byStatus[models.AttendanceLate]
	counts.NotComing = byStatus[models.AttendanceNotComing]
	counts.NoResponse = active - (counts.Coming + counts.Late + counts.NotComing)
	if counts.NoResponse < 0 {
		counts.NoResponse = 0
	}
	return counts, nil
}

func attendanceRow(userID string, member *models.TeamMember) models.AttendanceRow {
	row := models.AttendanceRow{TelegramUserID: userID, DisplayName: userID}
	if member != nil {
		row.DisplayName = member.Name()
		row.TelegramUsername = derefString(member.TelegramUsername)
	}
	return row
}

func (s *attendanceService) MatchView(ctx context.Context, teamID, matchID int) (*models.MatchAttendance, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.TeamID != teamID {
		return nil, ErrMatchNotFound
	}

	records, err := s.attendanceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*models.TeamMember, len(members))
	for _, m := range members {
		byUser[m.TelegramUserID] = m
	}

	view := &models.MatchAttendance{
		MatchID:    matchID,
		Responded:  make([]models.AttendanceRow, 0, len(records)),
		NoResponse: make([]models.AttendanceRow, 0),
	}
	responded := make(map[string]struct{}, len(records))
	for _, rec := range records {
		row := attendanceRow(rec.TelegramUserID, byUser[rec.TelegramUserID])
		row.Status = rec.Status
		view.Responded = append(view.Responded, row)
		responded[rec.TelegramUserID] = struct{}{}

		switch rec.Status {
		case models.AttendanceComing:
			view.Counts.Coming++
		case models.AttendanceLate:
			view.Counts.Late++
		case models.AttendanceNotComing:
			view.Counts.NotComing++
		}
	}
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		if _, ok := responded[m.TelegramUserID]; ok {
			continue
		}
		view.NoResponse = append(view.NoResponse, attendanceRow(m.TelegramUserID, m))
	}
	view.Counts.NoResponse = len(view.NoResponse)
	return view, nil
}

func (s *attendanceService) MemberView(ctx context.Context, teamID int, telegramUserID string) ([]models.MemberAttendance, error) {
	matches, err := s.matchRepo.ListUpcoming(ctx, teamID, s.now(), memberAttendanceLimit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.MemberAttendance{}, nil
	}

	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	statuses, err := s.attendanceRepo.StatusesForUser(ctx, telegramUserID, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.MemberAttendance, len(matches))
	for i, m := range matches {
		result[i] = models.MemberAttendance{
			MatchID:  m.ID,
			Opponent: m.Opponent,
			Date:     m.Date,
			Status:   statuses[m.ID],
		}
	}
	return result, nil
}
