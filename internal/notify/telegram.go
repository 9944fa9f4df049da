// Package notify mirrors alerts to Telegram so they reach the user even
// when the watch is off the wrist.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/logger"
)

// TelegramNotifier decorates a Sender: every record passes through to the
// wrapped sender, and alert-carrying records additionally push a message
// to the configured chat. Push failures are logged and never affect the
// pipeline.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	next   domain.Sender
}

// NewTelegramNotifier authenticates the bot and wraps next.
func NewTelegramNotifier(token string, chatID int64, next domain.Sender) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Telegram alert mirror enabled", "account", api.Self.UserName)

	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		next:   next,
	}, nil
}

// Send forwards the record and mirrors any alert.
func (n *TelegramNotifier) Send(ctx context.Context, update domain.Update) error {
	if text := alertText(update); text != "" {
		msg := tgbotapi.NewMessage(n.chatID, text)
		if _, err := n.api.Send(msg); err != nil {
			logger.Warn("Failed to mirror alert to Telegram", "error", err)
		}
	}
	return n.next.Send(ctx, update)
}

func alertText(update domain.Update) string {
	switch update.Alert {
	case domain.AlertLowSoon:
		return fmt.Sprintf("⚠️ Glucose %s %s — heading low within 20 minutes", update.DisplayValue, update.DisplayDelta)
	case domain.AlertHigh:
		return fmt.Sprintf("🔺 Glucose %s %s — above high threshold", update.DisplayValue, update.DisplayDelta)
	default:
		return ""
	}
}
