package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTruncatesFields(t *testing.T) {
	repo := &fakeIntegrationRepo{}
	svc := NewIntegrationMetricsService(repo, discardLogger())

	target := strings.Repeat("9", 80)
	sendErr := errors.New(strings.Repeat("ошибка ", 500))
	svc.Record(context.Background(), models.EventPoll, target, sendErr, ptr(1), nil)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.False(t, e.Success)
	assert.Len(t, *e.TargetChatID, integrationTargetMaxLen)
	assert.Equal(t, integrationErrorMaxLen, utf8.RuneCountInString(*e.ErrorMessage))
	assert.Equal(t, 1, *e.TeamID)
	assert.Nil(t, e.MatchID)
}

func TestRecordSuccess(t *testing.T) {
	repo := &fakeIntegrationRepo{}
	svc := NewIntegrationMetricsService(repo, discardLogger())

	svc.Record(context.Background(), models.EventChannelPost, "@tigers", nil, nil, ptr(7))

	require.Len(t, repo.events, 1)
	assert.True(t, repo.events[0].Success)
	assert.Nil(t, repo.events[0].ErrorMessage)
	assert.Equal(t, "@tigers", *repo.events[0].TargetChatID)
}

func TestRecentClampsLimit(t *testing.T) {
	repo := &fakeIntegrationRepo{}
	svc := NewIntegrationMetricsService(repo, discardLogger())
	ctx := context.Background()

	for _, tt := range []struct{ in, want int }{{0, 100}, {-5, 100}, {50, 50}, {200, 200}, {201, 100}} {
		_, err := svc.Recent(ctx, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, repo.limit, "limit %d", tt.in)
	}
}

func TestStatsAggregatesByType(t *testing.T) {
	repo := &fakeIntegrationRepo{counts: []repositories.IntegrationEventCount{
		{Type: models.EventReminder24h, Success: true, Count: 5},
		{Type: models.EventReminder24h, Success: false, Count: 2},
		{Type: models.EventBotMessage, Success: true, Count: 3},
		{Type: models.IntegrationEventType("LEGACY"), Success: false, Count: 1},
	}}
	svc := NewIntegrationMetricsService(repo, discardLogger()).(*integrationMetricsService)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, now, stats.To)
	assert.Equal(t, now.Add(-7*24*time.Hour), stats.From)
	assert.Equal(t, 11, stats.Total)
	assert.Equal(t, 8, stats.Success)
	assert.Equal(t, 3, stats.Failed)

	require.Len(t, stats.ByType, len(models.IntegrationEventTypes)+1)
	assert.Equal(t, models.EventBotMessage, stats.ByType[0].Type)
	assert.Equal(t, 3, stats.ByType[0].Total)
	assert.Equal(t, models.EventReminder24h, stats.ByType[1].Type)
	assert.Equal(t, 7, stats.ByType[1].Total)
	assert.Equal(t, 2, stats.ByType[1].Failed)
	assert.Equal(t, "Напоминание за 24 ч", stats.ByType[1].Label)
	assert.Zero(t, stats.ByType[2].Total)

	last := stats.ByType[len(stats.ByType)-1]
	assert.Equal(t, models.IntegrationEventType("LEGACY"), last.Type)
	assert.Equal(t, 1, last.Failed)
}
