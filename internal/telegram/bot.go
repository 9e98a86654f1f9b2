// Package telegram sends operator notifications over Telegram: startup,
// shutdown, signals, fills, circuit-breaker trips, and errors.
package telegram

import (
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nagavaishak/celsius-go/internal/market"
)

// Bot handles Telegram notifications for the trading engine.
type Bot struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	dryRun   bool
	disabled bool
}

// NewBot creates a new Telegram bot instance.
// If token is empty, returns a no-op bot that logs messages instead of sending.
func NewBot(token, chatID string) (*Bot, error) {
	if token == "" {
		log.Println("[telegram] no token provided, running in disabled mode (logging only)")
		return &Bot{disabled: true}, nil
	}

	parsedChatID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID %q: %w", chatID, err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Printf("[telegram] authorized as @%s", api.Self.UserName)

	return &Bot{
		api:    api,
		chatID: parsedChatID,
	}, nil
}

// SetDryRun sets the dry run mode flag for notifications.
func (b *Bot) SetDryRun(dryRun bool) {
	b.dryRun = dryRun
}

// SendMessage sends a plain text message.
func (b *Bot) SendMessage(text string) error {
	return b.send(text, false)
}

// SendAlert sends a formatted alert with bold title.
func (b *Bot) SendAlert(title, message string) error {
	formatted := fmt.Sprintf("*%s*\n\n%s", escapeMarkdown(title), message)
	return b.send(formatted, true)
}

// NotifyStarted sends a notification that the bot has started.
func (b *Bot) NotifyStarted() error {
	mode := "LIVE"
	if b.dryRun {
		mode = "DRY_RUN"
	}
	return b.SendAlert("Bot Started", fmt.Sprintf("Celsius is running in `%s` mode", mode))
}

// NotifyStopped sends a notification that the bot has stopped.
func (b *Bot) NotifyStopped() error {
	return b.SendAlert("Bot Stopped", "Celsius has been shut down")
}

// NotifySignal sends a notification when a strategy evaluator produces a
// tradable signal.
func (b *Bot) NotifySignal(sig market.Signal) error {
	edge := "n/a"
	if sig.Edge != nil {
		edge = fmt.Sprintf("%.4f", *sig.Edge)
	}
	return b.SendAlert("Signal",
		fmt.Sprintf("Market: `%s`\nStrategy: `%s`\nSide: `%s`\nEntry: `%.4f`\nSize: `%.2f`\nEdge: `%s`\nConfidence: `%.2f`",
			sig.MarketID, sig.Strategy, sig.Side, sig.EntryPrice, sig.Size, edge, sig.Confidence,
		),
	)
}

// NotifyFill sends a notification when an order fills.
func (b *Bot) NotifyFill(fill market.Fill) error {
	return b.SendAlert("Order Filled",
		fmt.Sprintf("Market: `%s`\nPrice: `%.4f`\nSize: `%.2f`\nCost: `$%.2f`\nAt: `%s`",
			fill.MarketID, fill.Price, fill.Size, fill.Cost, fill.Timestamp.Format(time.RFC3339),
		),
	)
}

// NotifyPositionClosed sends a notification when a position closes.
func (b *Bot) NotifyPositionClosed(pos market.Position) error {
	pnl := "n/a"
	if pos.PnL != nil {
		pnl = fmt.Sprintf("$%.2f", *pos.PnL)
	}
	return b.SendAlert("Position Closed",
		fmt.Sprintf("Market: `%s`\nStrategy: `%s`\nPnL: `%s`\nStatus: `%s`",
			pos.MarketID, pos.Strategy, pnl, pos.Status,
		),
	)
}

// NotifyCircuitBreaker sends a notification when the circuit breaker trips.
func (b *Bot) NotifyCircuitBreaker(reason string) error {
	return b.SendAlert("Circuit Breaker Tripped", fmt.Sprintf("Reason: `%s`", reason))
}

// NotifyError sends an error notification.
func (b *Bot) NotifyError(err error) error {
	return b.SendAlert("Error", fmt.Sprintf("`%s`", err.Error()))
}

// send handles the actual message sending with graceful error handling.
func (b *Bot) send(text string, useMarkdown bool) error {
	if b.disabled {
		log.Printf("[telegram] (disabled) %s", text)
		return nil
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	if useMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("[telegram] failed to send message: %v", err)
		return fmt.Errorf("telegram send failed: %w", err)
	}

	return nil
}

// escapeMarkdown escapes special Markdown characters in text.
func escapeMarkdown(text string) string {
	replacer := []string{
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	}

	result := text
	for i := 0; i < len(replacer); i += 2 {
		result = replaceAll(result, replacer[i], replacer[i+1])
	}
	return result
}

// replaceAll replaces all occurrences of old with new in s.
func replaceAll(s, old, new string) string {
	var result []byte
	for i := 0; i < len(s); i++ {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			result = append(result, new...)
			i += len(old) - 1
		} else {
			result = append(result, s[i])
		}
	}
	return string(result)
}
