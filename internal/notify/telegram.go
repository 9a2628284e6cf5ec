// Package notify pushes final-score alerts to Telegram.
//
// The notifier is optional. A nil *TelegramNotifier is safe to call, so
// callers never need to branch on whether Telegram is configured.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pickwire/internal/domain/model"
	"pickwire/pkg/logger"
)

// Telegram allows roughly 30 messages per minute to one chat. Keeping two
// seconds between sends stays under that without tracking quotas.
const sendInterval = 2 * time.Second

const queueDepth = 100

// TelegramNotifier sends game-final alerts to a single chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time

	queue  chan string
	done   chan struct{}
	cancel context.CancelFunc

	logger logger.Logger
}

// NewTelegramNotifier creates a notifier, or returns an error if the bot
// token is rejected by the Telegram API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("telegram bot handshake: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, queueDepth),
		done:   make(chan struct{}),
		cancel: cancel,
		logger: logger.Get().Named("telegram"),
	}
	go n.sender(ctx)

	n.logger.Info(ctx, "telegram notifier initialized", logger.Any("chat_id", chatID))
	return n, nil
}

// NotifyFinal queues an alert that a game has gone final, including any
// grades already computed. Non-blocking; drops the alert when the queue
// is full.
func (n *TelegramNotifier) NotifyFinal(ctx context.Context, rec model.ScoreRecord, grades []model.GradedPick) error {
	if n == nil || n.bot == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- formatFinalAlert(rec, grades):
		return nil
	default:
		n.logger.Warn(ctx, "alert queue full, dropping", logger.String("gameID", rec.ID))
		return fmt.Errorf("alert queue is full")
	}
}

// QueueLen returns the number of pending alerts.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

// Stop drains pending alerts and stops the sender.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.done
}

// sender delivers queued alerts one at a time, pacing sends to respect
// the chat rate limit.
func (n *TelegramNotifier) sender(ctx context.Context) {
	defer close(n.done)

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case text := <-n.queue:
					n.send(ctx, text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(ctx, text)
		}
	}
}

func (n *TelegramNotifier) send(ctx context.Context, text string) {
	n.mu.Lock()
	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		n.mu.Unlock()
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error(ctx, "telegram send failed", logger.Error(err))
		return
	}
	n.logger.Debug(ctx, "telegram alert sent", logger.Int("queue_len", len(n.queue)))
}

func formatFinalAlert(rec model.ScoreRecord, grades []model.GradedPick) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*FINAL:* %s %d, %s %d\n",
		escapeMarkdown(rec.AwayTeam.Name), rec.AwayTeam.PointsOrZero(),
		escapeMarkdown(rec.HomeTeam.Name), rec.HomeTeam.PointsOrZero(),
	)
	if !rec.KickoffAt.IsZero() {
		fmt.Fprintf(&b, "Kickoff: %s\n", rec.KickoffAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	for _, g := range grades {
		fmt.Fprintf(&b, "%s %s\n", gradeGlyph(g.Result), escapeMarkdown(g.Text))
	}
	return b.String()
}

func gradeGlyph(r model.GradeResult) string {
	switch r {
	case model.GradeWon:
		return "✅"
	case model.GradeLost:
		return "❌"
	case model.GradePush:
		return "➡"
	default:
		return "❓"
	}
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
