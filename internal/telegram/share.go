// Package telegram shares shopping lists to Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"meal-planner/internal/shopping"
)

// ErrNothingToShare is returned when every entry of the list is checked.
var ErrNothingToShare = errors.New("shopping list has no unchecked entries")

// Sender is the part of tgbotapi.BotAPI the sharer needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sharer posts the unchecked entries of a shopping list to a chat.
type Sharer struct {
	api    Sender
	logger *zap.Logger
}

// NewSharer authorizes the bot token against the Telegram API.
func NewSharer(token string, logger *zap.Logger) (*Sharer, error) {
	return NewSharerWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second}, logger)
}

// NewSharerWithEndpoint is NewSharer against a custom API endpoint, which
// must contain the same two %s verbs as tgbotapi.APIEndpoint.
func NewSharerWithEndpoint(token, endpoint string, client tgbotapi.HTTPClient, logger *zap.Logger) (*Sharer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Sharer{api: api, logger: logger}, nil
}

// Share sends the list's unchecked entries to chatID.
func (s *Sharer) Share(ctx context.Context, chatID int64, list shopping.List) error {
	text, ok := FormatShoppingList(list)
	if !ok {
		return ErrNothingToShare
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send shopping list: %w", err)
	}
	s.logger.Info("shopping list shared",
		zap.Int64("plan_id", list.Plan.ID),
		zap.Int64("chat_id", chatID))
	return nil
}

// FormatShoppingList renders the unchecked entries as MarkdownV2. It reports
// false when there is nothing left to buy.
func FormatShoppingList(list shopping.List) (string, bool) {
	items := list.Unchecked()
	if len(items) == 0 {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*")
	if !list.Plan.StartDate.IsZero() {
		dates := fmt.Sprintf("%s to %s", list.Plan.StartDate, list.Plan.EndDate)
		sb.WriteString("\n_" + escape(dates) + "_")
	}
	sb.WriteString("\n\n")
	for _, item := range items {
		sb.WriteString("• " + escape(item.Name))
		if item.Amount != "" {
			sb.WriteString(" " + escape("("+item.Amount+")"))
		}
		sb.WriteString("\n")
	}
	return sb.String(), true
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}
