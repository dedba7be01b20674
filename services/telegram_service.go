package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/HSouheill/taskreward_backend/models"
)

const maxMessageLen = 4000

// TelegramAlerter posts operator alerts to one chat.
type TelegramAlerter struct {
	bot    *bot.Bot
	chatID string
}

func NewTelegramAlerter(token, chatID string) (*TelegramAlerter, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: b, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(ctx context.Context, text string) error {
	if len([]rune(text)) > maxMessageLen {
		text = string([]rune(text)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// KYCAlert formats the message sent when a user submits KYC details.
func KYCAlert(user *models.User, kyc models.KYC, phone string) string {
	e := html.EscapeString
	return fmt.Sprintf("<b>New KYC Submission</b>\n\n"+
		"<b>Name:</b> %s\n<b>Email:</b> %s\n<b>Phone:</b> %s\n<b>Address:</b> %s\n"+
		"<b>DOB:</b> %s\n<b>Education:</b> %s\n<b>IP:</b> <code>%s</code>\n<b>UID:</b> <code>%s</code>\n<b>Time:</b> %s",
		e(kyc.Name), e(user.Email), e(phone), e(kyc.Address),
		e(kyc.DOB), e(kyc.Education), e(kyc.IP), e(user.ID), kyc.Timestamp.Format(time.RFC1123))
}
