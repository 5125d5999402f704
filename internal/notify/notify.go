// Package notify sends manager alerts over Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
)

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram notifies every manager chat. Sends are paced to stay under the
// Bot API per-bot limit.
type Telegram struct {
	bot      TelegramSender
	managers []int64
	limiter  *rate.Limiter
	logger   *zerolog.Logger
}

func NewTelegram(bot TelegramSender, managers []int64, logger *zerolog.Logger) *Telegram {
	return &Telegram{
		bot:      bot,
		managers: append([]int64(nil), managers...),
		limiter:  rate.NewLimiter(rate.Limit(20), 5),
		logger:   logger,
	}
}

// ForcedOverride reports an order committed past slot capacity.
func (t *Telegram) ForcedOverride(ctx context.Context, o model.Order, d overbooking.Decision) error {
	text := fmt.Sprintf("⚠️ Overbooking forced by %s\n%s %s, %s\nKitchen load %d/%d\n%s",
		orDash(o.CreatedBy), o.Date, o.Time, o.Type, d.Projected, d.Capacity, summary(o))
	return t.broadcast(ctx, text)
}

// PendingOrder reports a web order waiting for acceptance.
func (t *Telegram) PendingOrder(ctx context.Context, o model.Order) error {
	text := fmt.Sprintf("🍕 New %s order waiting for acceptance\n%s %s\n%s", o.Type, o.Date, o.Time, summary(o))
	return t.broadcast(ctx, text)
}

func (t *Telegram) broadcast(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range t.managers {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to notify manager")
			errs = append(errs, fmt.Errorf("send to %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func summary(o model.Order) string {
	var b strings.Builder
	b.WriteString(orDash(o.CustomerName))
	if o.CustomerPhone != "" {
		b.WriteString(" · " + o.CustomerPhone)
	}
	if o.Type == model.OrderTable {
		fmt.Fprintf(&b, "\n%d pax, %s", o.Pax, orDash(model.TableLabel(o.TableIDs)))
	}
	if n := o.KitchenLoad(); n > 0 {
		fmt.Fprintf(&b, "\n%d kitchen items", n)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Nop discards notifications; used when no bot token is configured.
type Nop struct{}

func (Nop) ForcedOverride(context.Context, model.Order, overbooking.Decision) error { return nil }
func (Nop) PendingOrder(context.Context, model.Order) error { return nil }
