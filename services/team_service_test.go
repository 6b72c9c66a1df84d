package services

import (
	"context"
	"testing"

	"github.com/Alex1231123112/manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamFixture(teams ...*models.Team) (TeamService, *fakeTeamRepo, *fakeMemberRepo, *fakeNotifier) {
	teamRepo := newFakeTeamRepo(teams...)
	memberRepo := &fakeMemberRepo{}
	notifier := &fakeNotifier{}
	return NewTeamService(teamRepo, memberRepo, fakeTx{}, notifier, nil, discardLogger()), teamRepo, memberRepo, notifier
}

func TestTeamCreateMakesCreatorAdmin(t *testing.T) {
	svc, _, members, _ := newTeamFixture()

	team, err := svc.Create(context.Background(), "  Тигры ", "-100123", &TelegramUser{ID: "10", Username: "@ivan", DisplayName: "Иван"})
	require.NoError(t, err)
	assert.Equal(t, "Тигры", team.Name)
	assert.Equal(t, "-100123", *team.TelegramChatID)

	require.Len(t, members.members, 1)
	m := members.members[0]
	assert.Equal(t, team.ID, m.TeamID)
	assert.Equal(t, models.RoleAdmin, m.Role)
	assert.Equal(t, "ivan", *m.TelegramUsername)
}

func TestTeamCreateValidation(t *testing.T) {
	svc, _, members, _ := newTeamFixture(&models.Team{ID: 1, Name: "Орлы", TelegramChatID: ptr("-100123")})
	ctx := context.Background()

	_, err := svc.Create(ctx, " ", "", nil)
	assert.ErrorIs(t, err, ErrTeamNameRequired)

	_, err = svc.Create(ctx, "Тигры", "-100123", &TelegramUser{ID: "10"})
	assert.ErrorIs(t, err, ErrTeamChatConflict)
	assert.Empty(t, members.members)
}

func TestTeamResolveByChat(t *testing.T) {
	svc, _, _, _ := newTeamFixture(&models.Team{ID: 1, Name: "Орлы", TelegramChatID: ptr("-1"), GroupChatID: ptr("1234567890")})
	ctx := context.Background()

	team, err := svc.ResolveByChat(ctx, "-1001234567890")
	require.NoError(t, err)
	assert.Equal(t, 1, team.ID)

	_, err = svc.ResolveByChat(ctx, "")
	assert.ErrorIs(t, err, ErrTeamNotFound)
	_, err = svc.ResolveByChat(ctx, "-42")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTeamUpdateChatsNormalizesIDs(t *testing.T) {
	svc, repo, _, _ := newTeamFixture(&models.Team{ID: 1, Name: "Орлы"})
	ctx := context.Background()

	team, err := svc.UpdateChats(ctx, 1, "@tigers_channel", " 1234567890 ")
	require.NoError(t, err)
	assert.Equal(t, "@tigers_channel", *team.ChannelChatID)
	assert.Equal(t, "-1001234567890", *team.GroupChatID)

	_, err = svc.UpdateChats(ctx, 1, "987654321", "")
	require.NoError(t, err)
	assert.Equal(t, "-100987654321", *repo.teams[1].ChannelChatID)
	assert.Nil(t, repo.teams[1].GroupChatID)

	_, err = svc.UpdateChats(ctx, 5, "", "")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTeamBroadcast(t *testing.T) {
	svc, _, _, notifier := newTeamFixture(
		&models.Team{ID: 1, Name: "Орлы", TelegramChatID: ptr("-1"), GroupChatID: ptr("-100777")},
		&models.Team{ID: 2, Name: "Без чата"},
	)
	ctx := context.Background()

	require.NoError(t, svc.Broadcast(ctx, 1, " Тренировка отменена "))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "-100777", notifier.sent[0].msg.ChatID)
	assert.Equal(t, "Тренировка отменена", notifier.sent[0].msg.Text)
	assert.Equal(t, models.EventBotMessage, notifier.sent[0].meta.Type)

	assert.ErrorIs(t, svc.Broadcast(ctx, 2, "привет"), ErrChatNotConfigured)
	assert.ErrorIs(t, svc.Broadcast(ctx, 1, " "), ErrValidationFailed)
}

func TestTeamUploadLogoWithoutStorage(t *testing.T) {
	svc, _, _, _ := newTeamFixture(&models.Team{ID: 1, Name: "Орлы"})
	_, err := svc.UploadLogo(context.Background(), 1, nil, "image/png")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
