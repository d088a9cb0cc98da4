// Package notifications delivers alert messages to Telegram.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// TelegramSender posts HTML messages to one chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	// channel is used instead of chatID for @username targets.
	channel string
	logger  *slog.Logger
}

// TelegramOptions configures NewTelegramSender.
type TelegramOptions struct {
	Token   string
	ChatID  string
	Timeout time.Duration
	// Endpoint overrides the Bot API URL format (tgbotapi.APIEndpoint).
	Endpoint string
}

// NewTelegramSender authenticates the bot token and returns a sender for
// the configured chat. Every API call is bounded by opts.Timeout.
func NewTelegramSender(opts TelegramOptions, logger *slog.Logger) (*TelegramSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}

	s := &TelegramSender{logger: logger}
	if strings.HasPrefix(opts.ChatID, "@") {
		s.channel = opts.ChatID
	} else {
		id, err := strconv.ParseInt(opts.ChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram chat id %q: %w", opts.ChatID, err)
		}
		s.chatID = id
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, &http.Client{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot auth: %w", err)
	}
	s.bot = bot
	logger.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return s, nil
}

// Send posts text with HTML parse mode. Success means Telegram accepted the
// message.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if s.channel != "" {
		msg = tgbotapi.NewMessageToChannel(s.channel, truncateString(text, maxMessageLen))
	} else {
		msg = tgbotapi.NewMessage(s.chatID, truncateString(text, maxMessageLen))
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	start := time.Now()
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	s.logger.Debug("Telegram message sent", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used by
// dry runs.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, text string) error {
	s.logger.Info("Notification (dry run)", "text", text)
	return nil
}

// truncateString cuts s to at most maxLen runes.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
