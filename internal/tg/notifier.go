// Package tg delivers exported files to the admins' Telegram chats.
package tg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/observability"
)

var ErrDisabled = errors.New("telegram delivery is not configured")

type Notifier struct {
	bot    *tgbotapi.BotAPI
	admins []int64
	log    *zap.Logger
}

// NewNotifier returns a disabled notifier when token is empty.
func NewNotifier(token string, admins []int64, log *zap.Logger) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, admins, log)
}

func NewNotifierWithEndpoint(token, endpoint string, admins []int64, log *zap.Logger) (*Notifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Notifier{admins: admins, log: log.Named("tg")}
	if token == "" {
		return n, nil
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	n.bot = bot
	n.log.Info("telegram delivery enabled", zap.String("bot", bot.Self.UserName), zap.Int("admins", len(admins)))
	return n, nil
}

func (n *Notifier) Enabled() bool { return n != nil && n.bot != nil && len(n.admins) > 0 }

// SendDocument sends one file to every admin chat. A failed chat does not stop
// the others; the joined error reports all of them.
func (n *Notifier) SendDocument(ctx context.Context, name string, data []byte, caption string) error {
	if !n.Enabled() {
		return ErrDisabled
	}
	var errs []error
	for _, chatID := range n.admins {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
		doc.Caption = caption
		if _, err := n.send(doc); err != nil {
			n.log.Warn("send document failed", zap.Int64("chat_id", chatID), zap.Error(err))
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := n.bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

// 5xx, 429 and timeouts are ours to look at; Telegram's 400s (bad chat, blocked
// bot) stay out of Sentry.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var te *tgbotapi.Error
	if errors.As(err, &te) {
		return te.Code == 429 || te.Code >= 500
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") || strings.Contains(s, "chat not found") {
		return false
	}
	return observability.IsSystemErr(err) || strings.Contains(s, "timeout")
}
