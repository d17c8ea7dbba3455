// Package notify delivers partner reminders over the Telegram Bot API.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

var ErrNoChat = errors.New("recipient has no telegram chat")

const openButtonText = "Open"

type TelegramNotifier struct {
	bot       *bot.Bot
	webAppURL string
}

func NewTelegramNotifier(b *bot.Bot, webAppURL string) *TelegramNotifier {
	return &TelegramNotifier{bot: b, webAppURL: webAppURL}
}

// NotifyPartner messages the recipient with a button that opens the mini app on the prompt.
// A web_app button is tried first; clients that reject it get a plain link.
func (n *TelegramNotifier) NotifyPartner(ctx context.Context, notice service.ReminderNotice) error {
	if notice.Recipient == nil || notice.Recipient.TelegramID == 0 {
		return ErrNoChat
	}

	params := &bot.SendMessageParams{
		ChatID: notice.Recipient.TelegramID,
		Text:   ReminderText(notice),
	}

	link := n.promptLink(notice.Prompt)
	if link == "" {
		_, err := n.bot.SendMessage(ctx, params)
		return err
	}

	params.ReplyMarkup = WebAppKeyboard(openButtonText, link)
	_, err := n.bot.SendMessage(ctx, params)
	if err == nil {
		return nil
	}

	log.Warn().
		Err(err).
		Int64("chatId", notice.Recipient.TelegramID).
		Msg("web_app button rejected, retrying with url button")

	params.ReplyMarkup = URLKeyboard(openButtonText, link)
	if _, err := n.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) promptLink(prompt *model.Prompt) string {
	if n.webAppURL == "" {
		return ""
	}
	if prompt == nil {
		return n.webAppURL
	}
	return WithQuery(n.webAppURL, "prompt", fmt.Sprintf("%d", prompt.ID))
}

// ReminderText is the message body for a reminder.
func ReminderText(notice service.ReminderNotice) string {
	name := "Your partner"
	if notice.Sender != nil && notice.Sender.DisplayName != "" {
		name = notice.Sender.DisplayName
	}
	if notice.Prompt != nil && notice.Prompt.Kind == model.PromptKindTune {
		return fmt.Sprintf("%s finished a tune-in question and is waiting to compare answers with you.", name)
	}
	return fmt.Sprintf("%s answered today's question and is waiting for yours.", name)
}

func WebAppKeyboard(text, link string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: text, WebApp: &models.WebAppInfo{URL: link}}},
		},
	}
}

func URLKeyboard(text, link string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: text, URL: link}},
		},
	}
}

// WithQuery sets key=value on base, keeping any existing query. An unparsable base is returned as is.
func WithQuery(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
