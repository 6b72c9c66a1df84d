package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrInvalidChatID = errors.New("invalid telegram chat id")

// BotAPI - часть tgbotapi.BotAPI, которой пользуются клиент и бот.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client отправляет сообщения через Bot API и записывает каждую попытку в журнал интеграций.
type Client struct {
	api     BotAPI
	metrics services.IntegrationMetricsService
	logger  *slog.Logger
}

var _ services.Notifier = (*Client)(nil)

func NewClient(api BotAPI, metrics services.IntegrationMetricsService, logger *slog.Logger) *Client {
	return &Client{api: api, metrics: metrics, logger: logger}
}

// chatTarget разбирает id чата: число или @username публичного канала.
func chatTarget(chatID string) (tgbotapi.BaseChat, error) {
	chatID = strings.TrimSpace(chatID)
	if strings.HasPrefix(chatID, "@") && len(chatID) > 1 {
		return tgbotapi.BaseChat{ChannelUsername: chatID}, nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return tgbotapi.BaseChat{}, fmt.Errorf("%w: %q", ErrInvalidChatID, chatID)
	}
	return tgbotapi.BaseChat{ChatID: id}, nil
}

func inlineKeyboard(rows [][]models.InlineButton) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true
	return markup
}

func (c *Client) record(ctx context.Context, chatID string, meta services.DeliveryMeta, err error) error {
	c.metrics.Record(ctx, meta.Type, chatID, err, meta.TeamID, meta.MatchID)
	if err != nil {
		c.logger.WarnContext(ctx, "telegram delivery failed",
			slog.String("type", string(meta.Type)),
			slog.String("chat_id", chatID),
			slog.Any("error", err),
		)
	}
	return err
}

func (c *Client) SendMessage(ctx context.Context, msg models.OutgoingMessage, meta services.DeliveryMeta) error {
	target, err := chatTarget(msg.ChatID)
	if err != nil {
		return c.record(ctx, msg.ChatID, meta, err)
	}

	cfg := tgbotapi.MessageConfig{BaseChat: target, Text: msg.Text}
	switch {
	case len(msg.Buttons) > 0:
		cfg.ReplyMarkup = inlineKeyboard(msg.Buttons)
	case len(msg.Keyboard) > 0:
		cfg.ReplyMarkup = replyKeyboard(msg.Keyboard)
	}

	_, err = c.api.Send(cfg)
	return c.record(ctx, msg.ChatID, meta, err)
}

func (c *Client) SendPhoto(ctx context.Context, photo models.OutgoingPhoto, meta services.DeliveryMeta) error {
	target, err := chatTarget(photo.ChatID)
	if err != nil {
		return c.record(ctx, photo.ChatID, meta, err)
	}

	name := photo.FileName
	if name == "" {
		name = "image.png"
	}
	cfg := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: target,
			File:     tgbotapi.FileBytes{Name: name, Bytes: photo.Data},
		},
		Caption: photo.Caption,
	}

	_, err = c.api.Send(cfg)
	return c.record(ctx, photo.ChatID, meta, err)
}

func (c *Client) SendPoll(ctx context.Context, poll models.OutgoingPoll, meta services.DeliveryMeta) error {
	target, err := chatTarget(poll.ChatID)
	if err != nil {
		return c.record(ctx, poll.ChatID, meta, err)
	}

	cfg := tgbotapi.SendPollConfig{
		BaseChat:    target,
		Question:    poll.Question,
		Options:     poll.Options,
		IsAnonymous: poll.Anonymous,
	}

	_, err = c.api.Send(cfg)
	return c.record(ctx, poll.ChatID, meta, err)
}

// AnswerCallback закрывает "часики" на нажатой кнопке. В журнал не пишется.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := c.api.Request(cfg); err != nil {
		c.logger.WarnContext(ctx, "failed to answer callback query", slog.Any("error", err))
	}
}
