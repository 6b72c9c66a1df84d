package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTarget(t *testing.T) {
	target, err := chatTarget("-1001234567890")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), target.ChatID)

	// Личный чат не превращается в id супергруппы.
	target, err = chatTarget("123456789")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), target.ChatID)

	target, err = chatTarget(" @tigers_news ")
	require.NoError(t, err)
	assert.Equal(t, "@tigers_news", target.ChannelUsername)

	for _, bad := range []string{"", "0", "@", "chat"} {
		_, err := chatTarget(bad)
		assert.ErrorIs(t, err, ErrInvalidChatID, bad)
	}
}

func TestClient_SendMessageRecordsSuccess(t *testing.T) {
	api := &fakeAPI{}
	metrics := &fakeMetrics{}
	client := NewClient(api, metrics, discardLogger())
	teamID, matchID := 1, 5

	err := client.SendMessage(context.Background(), models.OutgoingMessage{
		ChatID:  "-100500",
		Text:    "Игра завтра",
		Buttons: [][]models.InlineButton{{{Text: "Буду", Data: "attend:5:COMING"}}},
	}, services.DeliveryMeta{Type: models.EventReminder24h, TeamID: &teamID, MatchID: &matchID})
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	cfg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, "Игра завтра", cfg.Text)
	markup, ok := cfg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "attend:5:COMING", *markup.InlineKeyboard[0][0].CallbackData)

	require.Len(t, metrics.events, 1)
	ev := metrics.events[0]
	assert.Equal(t, models.EventReminder24h, ev.eventType)
	assert.Equal(t, "-100500", ev.target)
	assert.NoError(t, ev.err)
	assert.Equal(t, &matchID, ev.matchID)
}

func TestClient_SendMessageReplyKeyboard(t *testing.T) {
	api := &fakeAPI{}
	client := NewClient(api, &fakeMetrics{}, discardLogger())

	err := client.SendMessage(context.Background(), models.OutgoingMessage{
		ChatID: "42", Text: "Меню", Keyboard: mainMenu(),
	}, services.DeliveryMeta{Type: models.EventBotMessage})
	require.NoError(t, err)

	markup, ok := api.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, markup.ResizeKeyboard)
	assert.Equal(t, btnSchedule, markup.Keyboard[0][0].Text)
}

func TestClient_FailuresAreRecorded(t *testing.T) {
	sendErr := errors.New("Forbidden: bot was kicked from the group chat")
	api := &fakeAPI{sendErr: sendErr}
	metrics := &fakeMetrics{}
	client := NewClient(api, metrics, discardLogger())
	ctx := context.Background()

	err := client.SendPoll(ctx, models.OutgoingPoll{ChatID: "-100500", Question: "?", Options: []string{"a", "b"}},
		services.DeliveryMeta{Type: models.EventPoll})
	assert.ErrorIs(t, err, sendErr)

	err = client.SendPhoto(ctx, models.OutgoingPhoto{ChatID: "not-a-chat", Data: []byte{1}},
		services.DeliveryMeta{Type: models.EventInviteQR})
	assert.ErrorIs(t, err, ErrInvalidChatID)

	require.Len(t, metrics.events, 2)
	assert.ErrorIs(t, metrics.events[0].err, sendErr)
	assert.Equal(t, models.EventInviteQR, metrics.events[1].eventType)
	assert.Equal(t, "not-a-chat", metrics.events[1].target)
	assert.ErrorIs(t, metrics.events[1].err, ErrInvalidChatID)
}

func TestClient_AnswerCallback(t *testing.T) {
	api := &fakeAPI{}
	metrics := &fakeMetrics{}
	client := NewClient(api, metrics, discardLogger())

	client.AnswerCallback(context.Background(), "cb", "Готово", true)

	require.Len(t, api.requests, 1)
	cfg := api.requests[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, "cb", cfg.CallbackQueryID)
	assert.True(t, cfg.ShowAlert)
	assert.Empty(t, metrics.events)
}
