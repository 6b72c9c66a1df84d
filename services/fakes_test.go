package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

// --- transactor ---

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- teams ---

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: map[int]*models.Team{}}
	for _, t := range teams {
		r.teams[t.ID] = t
		if t.ID > r.nextID {
			r.nextID = t.ID
		}
	}
	return r
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	for _, t := range r.teams {
		if team.TelegramChatID != nil && t.TelegramChatID != nil && *t.TelegramChatID == *team.TelegramChatID {
			return repositories.ErrTeamChatConflict
		}
	}
	r.nextID++
	team.ID = r.nextID
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeamRepo) GetByChatID(_ context.Context, chatID string) (*models.Team, error) {
	for _, t := range r.teams {
		if derefString(t.TelegramChatID) == chatID || (t.GroupChatID != nil && models.NormalizeGroupChatID(*t.GroupChatID) == chatID) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) List(_ context.Context) ([]*models.Team, error) {
	out := make([]*models.Team, 0, len(r.teams))
	for _, t := range r.teams {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) UpdateChats(_ context.Context, id int, channelChatID, groupChatID *string) error {
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.ChannelChatID = channelChatID
	t.GroupChatID = groupChatID
	return nil
}

func (r *fakeTeamRepo) UpdateLogo(_ context.Context, id int, logoKey *string) error {
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = logoKey
	return nil
}

// --- members ---

type fakeMemberRepo struct {
	members []*models.TeamMember
}

func (r *fakeMemberRepo) find(teamID int, userID string) *models.TeamMember {
	for _, m := range r.members {
		if m.TeamID == teamID && m.TelegramUserID == userID {
			return m
		}
	}
	return nil
}

func (r *fakeMemberRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, member *models.TeamMember) error {
	if existing := r.find(member.TeamID, member.TelegramUserID); existing != nil {
		existing.Role = member.Role
		existing.IsActive = true
		if member.TelegramUsername != nil {
			existing.TelegramUsername = member.TelegramUsername
		}
		if member.DisplayName != nil {
			existing.DisplayName = member.DisplayName
		}
		*member = *existing
		return nil
	}
	member.ID = len(r.members) + 1
	member.IsActive = true
	cp := *member
	r.members = append(r.members, &cp)
	return nil
}

func (r *fakeMemberRepo) GetByTeamAndUser(_ context.Context, teamID int, userID string) (*models.TeamMember, error) {
	m := r.find(teamID, userID)
	if m == nil {
		return nil, repositories.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) CountByTeam(_ context.Context, teamID int) (int, error) {
	n := 0
	for _, m := range r.members {
		if m.TeamID == teamID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMemberRepo) CountActiveByTeam(_ context.Context, teamID int) (int, error) {
	n := 0
	for _, m := range r.members {
		if m.TeamID == teamID && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeMemberRepo) ListByTeam(_ context.Context, teamID int) ([]*models.TeamMember, error) {
	out := []*models.TeamMember{}
	for _, m := range r.members {
		if m.TeamID == teamID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) ListActiveByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	all, _ := r.ListByTeam(ctx, teamID)
	out := []*models.TeamMember{}
	for _, m := range all {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) FindFirstActiveByUser(_ context.Context, userID string) (*models.TeamMember, error) {
	for _, m := range r.members {
		if m.TelegramUserID == userID && m.IsActive {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMemberNotFound
}

func (r *fakeMemberRepo) Update(_ context.Context, _ repositories.SQLExecutor, member *models.TeamMember) error {
	existing := r.find(member.TeamID, member.TelegramUserID)
	if existing == nil {
		return repositories.ErrMemberNotFound
	}
	player := member.Player
	*existing = *member
	existing.Player = nil
	member.Player = player
	return nil
}

// --- players ---

type fakePlayerRepo struct {
	players []*models.Player
}

func (r *fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	p.ID = len(r.players) + 1
	cp := *p
	r.players = append(r.players, &cp)
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	for _, p := range r.players {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) GetByTelegramID(_ context.Context, teamID int, tgID string) (*models.Player, error) {
	for _, p := range r.players {
		if p.TeamID == teamID && derefString(p.TelegramID) == tgID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) ListByTeam(_ context.Context, teamID int) ([]*models.Player, error) {
	out := []*models.Player{}
	for _, p := range r.players {
		if p.TeamID == teamID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) ListDebtors(ctx context.Context, teamID int) ([]*models.Player, error) {
	all, _ := r.ListByTeam(ctx, teamID)
	out := []*models.Player{}
	for _, p := range all {
		if p.HasDebt() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Debt.GreaterThan(out[j].Debt) })
	return out, nil
}

func (r *fakePlayerRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	for i, existing := range r.players {
		if existing.ID == p.ID {
			cp := *p
			r.players[i] = &cp
			return nil
		}
	}
	return repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) UpsertByTelegramID(ctx context.Context, exec repositories.SQLExecutor, p *models.Player) error {
	if existing, err := r.GetByTelegramID(ctx, p.TeamID, derefString(p.TelegramID)); err == nil {
		p.ID = existing.ID
		return r.Update(ctx, exec, p)
	}
	return r.Create(ctx, p)
}

func (r *fakePlayerRepo) Delete(_ context.Context, id int) error {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPlayerNotFound
}

// --- matches ---

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []*models.Match
	teams   *fakeTeamRepo
	listErr map[models.ReminderKind]error
}

func (r *fakeMatchRepo) get(id int) *models.Match {
	for _, m := range r.matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *fakeMatchRepo) withTeam(m *models.Match) *models.Match {
	cp := *m
	if r.teams != nil {
		if t, err := r.teams.GetByID(context.Background(), m.TeamID); err == nil {
			cp.Team = t
		}
	}
	return &cp
}

func (r *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	m.ID = len(r.matches) + 1
	cp := *m
	r.matches = append(r.matches, &cp)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m := r.get(id)
	if m == nil {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, m *models.Match) error {
	existing := r.get(m.ID)
	if existing == nil {
		return repositories.ErrMatchNotFound
	}
	existing.Opponent = m.Opponent
	existing.Date = m.Date
	existing.Location = m.Location
	existing.OurScore = m.OurScore
	existing.OpponentScore = m.OpponentScore
	existing.Status = m.Status
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, id int) error {
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByTeam(_ context.Context, teamID int) ([]*models.Match, error) {
	out := []*models.Match{}
	for _, m := range r.matches {
		if m.TeamID == teamID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListUpcoming(_ context.Context, teamID int, after time.Time, limit int) ([]*models.Match, error) {
	out := []*models.Match{}
	for _, m := range r.matches {
		if m.TeamID == teamID && m.Status == models.MatchStatusScheduled && !m.Date.Before(after) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMatchRepo) ListPast(_ context.Context, teamID int, before time.Time, limit int) ([]*models.Match, error) {
	out := []*models.Match{}
	for _, m := range r.matches {
		if m.TeamID == teamID && m.Date.Before(before) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func between(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (r *fakeMatchRepo) due(kind models.ReminderKind, pred func(m *models.Match) bool) ([]*models.Match, error) {
	if err := r.listErr[kind]; err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Match{}
	for _, m := range r.matches {
		if pred(m) {
			out = append(out, r.withTeam(m))
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListDueFor24h(_ context.Context, from, to time.Time) ([]*models.Match, error) {
	return r.due(models.Reminder24h, func(m *models.Match) bool {
		return m.Status == models.MatchStatusScheduled && between(m.Date, from, to) && !m.Reminder24hSent
	})
}

func (r *fakeMatchRepo) ListDueForStats(_ context.Context, sentBefore time.Time) ([]*models.Match, error) {
	return r.due(models.ReminderStats, func(m *models.Match) bool {
		return m.Reminder24hSentAt != nil && !m.Reminder24hSentAt.After(sentBefore) && !m.ReminderStatsSent
	})
}

func (r *fakeMatchRepo) ListDueFor3h(_ context.Context, from, to time.Time) ([]*models.Match, error) {
	return r.due(models.Reminder3h, func(m *models.Match) bool {
		return m.Status == models.MatchStatusScheduled && between(m.Date, from, to) && !m.Reminder3hSent
	})
}

func (r *fakeMatchRepo) ListDueForAfter(_ context.Context, from, to time.Time) ([]*models.Match, error) {
	return r.due(models.ReminderAfter, func(m *models.Match) bool {
		return m.Status == models.MatchStatusScheduled && between(m.Date, from, to) && !m.ReminderAfterSent
	})
}

func (r *fakeMatchRepo) MarkReminderSent(_ context.Context, id int, kind models.ReminderKind, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.get(id)
	if m == nil {
		return false, nil
	}
	if m.ReminderSent(kind) {
		return false, nil
	}
	switch kind {
	case models.Reminder24h:
		m.Reminder24hSent = true
		m.Reminder24hSentAt = &at
	case models.ReminderStats:
		m.ReminderStatsSent = true
	case models.Reminder3h:
		m.Reminder3hSent = true
	case models.ReminderAfter:
		m.ReminderAfterSent = true
	default:
		return false, repositories.ErrUnknownReminderKind
	}
	return true, nil
}

func (r *fakeMatchRepo) SetCardKey(_ context.Context, id int, key *string) error {
	m := r.get(id)
	if m == nil {
		return repositories.ErrMatchNotFound
	}
	m.CardKey = key
	return nil
}

// --- invitations ---

type fakeInvitationRepo struct {
	invitations []*models.Invitation
	// conflicts - сколько первых Create вернут конфликт кода.
	conflicts int
}

func (r *fakeInvitationRepo) Create(_ context.Context, inv *models.Invitation) error {
	if r.conflicts > 0 {
		r.conflicts--
		return repositories.ErrInvitationCodeConflict
	}
	for _, existing := range r.invitations {
		if existing.Code == inv.Code {
			return repositories.ErrInvitationCodeConflict
		}
	}
	inv.ID = len(r.invitations) + 1
	cp := *inv
	r.invitations = append(r.invitations, &cp)
	return nil
}

func (r *fakeInvitationRepo) GetByCode(_ context.Context, code string) (*models.Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repositories.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) ListByTeamID(_ context.Context, teamID int) ([]*models.Invitation, error) {
	out := []*models.Invitation{}
	for _, inv := range r.invitations {
		if inv.TeamID == teamID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) DeleteByTeamAndCode(_ context.Context, teamID int, code string) error {
	for i, inv := range r.invitations {
		if inv.TeamID == teamID && inv.Code == code {
			r.invitations = append(r.invitations[:i], r.invitations[i+1:]...)
			return nil
		}
	}
	return repositories.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	kept := r.invitations[:0]
	var removed int64
	for _, inv := range r.invitations {
		if inv.IsExpired(now) {
			removed++
			continue
		}
		kept = append(kept, inv)
	}
	r.invitations = kept
	return removed, nil
}

// --- attendance ---

type fakeAttendanceRepo struct {
	rows []*models.EventAttendance
}

func (r *fakeAttendanceRepo) Upsert(_ context.Context, a *models.EventAttendance) error {
	for _, row := range r.rows {
		if row.MatchID == a.MatchID && row.TelegramUserID == a.TelegramUserID {
			row.Status = a.Status
			return nil
		}
	}
	a.ID = len(r.rows) + 1
	cp := *a
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeAttendanceRepo) ListByMatch(_ context.Context, matchID int) ([]*models.EventAttendance, error) {
	out := []*models.EventAttendance{}
	for _, row := range r.rows {
		if row.MatchID == matchID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) CountByMatch(_ context.Context, matchID int) (map[models.AttendanceStatus]int, error) {
	counts := map[models.AttendanceStatus]int{
		models.AttendanceComing:    0,
		models.AttendanceLate:      0,
		models.AttendanceNotComing: 0,
	}
	for _, row := range r.rows {
		if row.MatchID == matchID {
			counts[row.Status]++
		}
	}
	return counts, nil
}

func (r *fakeAttendanceRepo) StatusesForUser(_ context.Context, userID string, matchIDs []int) (map[int]models.AttendanceStatus, error) {
	out := map[int]models.AttendanceStatus{}
	for _, id := range matchIDs {
		for _, row := range r.rows {
			if row.MatchID == id && row.TelegramUserID == userID {
				out[id] = row.Status
			}
		}
	}
	return out, nil
}

// --- integration events ---

type fakeIntegrationRepo struct {
	mu     sync.Mutex
	events []*models.IntegrationEvent
	counts []repositories.IntegrationEventCount
	limit  int
}

func (r *fakeIntegrationRepo) Create(_ context.Context, e *models.IntegrationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.events) + 1)
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeIntegrationRepo) ListRecent(_ context.Context, limit int) ([]*models.IntegrationEvent, error) {
	r.limit = limit
	return r.events, nil
}

func (r *fakeIntegrationRepo) CountBetween(_ context.Context, _, _ time.Time) ([]repositories.IntegrationEventCount, error) {
	return r.counts, nil
}

func (r *fakeIntegrationRepo) byType(t models.IntegrationEventType) []*models.IntegrationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.IntegrationEvent{}
	for _, e := range r.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// --- settings ---

type fakeSettingRepo struct {
	values map[string]string
}

func (r *fakeSettingRepo) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, repositories.ErrSettingNotFound
	}
	return &models.SystemSetting{Key: key, Value: v}, nil
}

func (r *fakeSettingRepo) Set(_ context.Context, s *models.SystemSetting) error {
	if r.values == nil {
		r.values = map[string]string{}
	}
	r.values[s.Key] = s.Value
	return nil
}

// --- notifier ---

type sentMessage struct {
	msg  models.OutgoingMessage
	meta DeliveryMeta
}

// fakeNotifier записывает отправки в журнал так же, как настоящий клиент.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	photos  []models.OutgoingPhoto
	failFor map[string]error
	metrics IntegrationMetricsService
}

func (n *fakeNotifier) SendMessage(ctx context.Context, msg models.OutgoingMessage, meta DeliveryMeta) error {
	n.mu.Lock()
	err := n.failFor[msg.ChatID]
	if err == nil {
		n.sent = append(n.sent, sentMessage{msg: msg, meta: meta})
	}
	n.mu.Unlock()
	if n.metrics != nil {
		n.metrics.Record(ctx, meta.Type, msg.ChatID, err, meta.TeamID, meta.MatchID)
	}
	return err
}

func (n *fakeNotifier) SendPhoto(_ context.Context, photo models.OutgoingPhoto, _ DeliveryMeta) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.photos = append(n.photos, photo)
	return nil
}

func (n *fakeNotifier) SendPoll(_ context.Context, _ models.OutgoingPoll, _ DeliveryMeta) error {
	return nil
}

func (n *fakeNotifier) textsTo(chatID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []string{}
	for _, s := range n.sent {
		if s.msg.ChatID == chatID {
			out = append(out, s.msg.Text)
		}
	}
	return out
}

func (n *fakeNotifier) count(prefix string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if strings.HasPrefix(s.msg.Text, prefix) {
			c++
		}
	}
	return c
}

var errSendFailed = errors.New("telegram: bad request: chat not found")
