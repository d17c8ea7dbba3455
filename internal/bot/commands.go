// Package bot handles the chat commands users send to the Telegram bot.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/notify"
	"github.com/pulseofpair/pairsync/internal/service"
	"github.com/pulseofpair/pairsync/internal/telegram"
)

const (
	welcomeText  = "Welcome! Open the app to answer today's question together with your partner."
	openAppLabel = "Open app"
)

type Invitations interface {
	Issue(ctx context.Context, issuerID string) (*model.Invitation, error)
	Peek(ctx context.Context, code string) (*service.InvitationPreview, error)
}

type Users interface {
	Upsert(ctx context.Context, params model.CreateUserParams) (*model.User, error)
}

type Options struct {
	WebAppURL   string
	BotUsername string
	AppName     string
}

type Commands struct {
	invitations Invitations
	users       Users
	opts        Options
}

func NewCommands(invitations Invitations, users Users, opts Options) *Commands {
	if opts.AppName == "" {
		opts.AppName = "app"
	}
	return &Commands{invitations: invitations, users: users, opts: opts}
}

func (c *Commands) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/invite", bot.MatchTypeExact, c.HandleInvite)
}

// HandleStart greets the user. With an invite_<code> payload it names the inviter
// and opens the app with the code attached.
func (c *Commands) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		log.Error().Msg("invalid update in HandleStart")
		return
	}
	chatID := update.Message.Chat.ID

	_, payload, _ := strings.Cut(update.Message.Text, " ")
	code, ok := telegram.ParseInviteStartParam(payload)
	if !ok {
		c.reply(ctx, b, chatID, welcomeText, c.opts.WebAppURL)
		return
	}

	preview, err := c.invitations.Peek(ctx, code)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
			c.reply(ctx, b, chatID, "This invitation has expired or does not exist. Ask your partner for a new one.", c.opts.WebAppURL)
			return
		}
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to look up invitation")
		c.reply(ctx, b, chatID, "Something went wrong. Please try again later.", "")
		return
	}
	if preview.Used {
		c.reply(ctx, b, chatID, "This invitation has already been used.", c.opts.WebAppURL)
		return
	}

	name := preview.IssuerName
	if name == "" {
		name = "Someone"
	}
	link := ""
	if c.opts.WebAppURL != "" {
		link = notify.WithQuery(c.opts.WebAppURL, "invite", preview.Code)
	}
	c.reply(ctx, b, chatID, fmt.Sprintf("%s invited you to pair up. Open the app to accept.", name), link)
}

// HandleInvite issues (or reuses) the sender's invitation and replies with a shareable link.
func (c *Commands) HandleInvite(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		log.Error().Msg("invalid update in HandleInvite")
		return
	}
	chatID := update.Message.Chat.ID
	from := update.Message.From

	var username *string
	if from.Username != "" {
		username = &from.Username
	}
	user, err := c.users.Upsert(ctx, model.CreateUserParams{
		TelegramID:  from.ID,
		DisplayName: strings.TrimSpace(from.FirstName + " " + from.LastName),
		Username:    username,
	})
	if err != nil {
		log.Error().Err(err).Int64("telegramId", from.ID).Msg("failed to upsert user from bot")
		c.reply(ctx, b, chatID, "Something went wrong. Please try again later.", "")
		return
	}

	inv, err := c.invitations.Issue(ctx, user.ID)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeAlreadyPaired {
			c.reply(ctx, b, chatID, "You are already paired.", c.opts.WebAppURL)
			return
		}
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to issue invitation from bot")
		c.reply(ctx, b, chatID, "Could not create an invitation. Please try again later.", "")
		return
	}

	text := fmt.Sprintf("Send this link to your partner:\n%s\n\nOr share the code %s. It expires %s.",
		c.DeepLink(inv.Code), inv.Code, inv.ExpiresAt.UTC().Format("Jan 2 15:04 MST"))
	c.reply(ctx, b, chatID, text, "")
}

// DeepLink opens the mini app with the invite as start parameter.
func (c *Commands) DeepLink(code string) string {
	if c.opts.BotUsername == "" {
		if c.opts.WebAppURL == "" {
			return code
		}
		return notify.WithQuery(c.opts.WebAppURL, "invite", code)
	}
	return fmt.Sprintf("https://t.me/%s/%s?startapp=invite_%s", c.opts.BotUsername, c.opts.AppName, code)
}

func (c *Commands) reply(ctx context.Context, b *bot.Bot, chatID int64, text, link string) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if link != "" {
		params.ReplyMarkup = notify.WebAppKeyboard(openAppLabel, link)
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		log.Warn().Err(err).Int64("chatId", chatID).Msg("failed to send bot reply")
	}
}
