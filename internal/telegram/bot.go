// Package telegram runs chat sessions over a Telegram bot. Every member of a
// chat gets their own session; members of one chat share a family collection.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/log"
)

type Config struct {
	Token string
	Debug bool
}

// Bot adapts Telegram updates to chat turns.
type Bot struct {
	bot      *bot.Bot
	sessions *chat.Manager
	money    *core.Formatter
	logger   *log.Logger
}

func New(cfg Config, sessions *chat.Manager, money *core.Formatter, logger *log.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}
	if logger == nil {
		logger = log.Discard()
	}
	if money == nil {
		money = core.DefaultFormatter()
	}

	b := &Bot{
		sessions: sessions,
		money:    money,
		logger:   logger.WithComponent(log.ComponentTelegram),
	}

	opts := []bot.Option{bot.WithDefaultHandler(b.handleText)}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}
	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b.bot = api

	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypeExact, b.handleReset)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypeExact, b.handleStats)
	return b, nil
}

// Start blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting Telegram bot")
	b.bot.Start(ctx)
	b.logger.Info("Telegram bot stopped")
	return nil
}

// Sender is who wrote a Telegram message.
type Sender struct {
	ChatID int64
	UserID int64
	Name   string
}

func senderOf(update *botModels.Update) (Sender, bool) {
	if update.Message == nil || update.Message.From == nil {
		return Sender{}, false
	}
	return Sender{
		ChatID: update.Message.Chat.ID,
		UserID: update.Message.From.ID,
		Name:   update.Message.From.FirstName,
	}, true
}

func (s Sender) identity() core.Identity {
	return core.Identity{
		UserID:   "tg:" + strconv.FormatInt(s.UserID, 10),
		UserName: s.Name,
		FamilyID: familyPrefix + strconv.FormatInt(s.ChatID, 10),
	}
}

func (s Sender) sessionKey() string {
	return "tg:" + strconv.FormatInt(s.ChatID, 10) + ":" + strconv.FormatInt(s.UserID, 10)
}

// Reply runs one turn for sender and returns the text to send back.
func (b *Bot) Reply(ctx context.Context, from Sender, text string) string {
	session := b.sessions.GetOrCreate(from.sessionKey(), from.identity())
	reply, err := session.Submit(ctx, text)
	switch {
	case err == nil:
		return reply.Text
	case errors.Is(err, chat.ErrTurnInProgress):
		return "Still working on your last message, one moment."
	case errors.Is(err, chat.ErrEmptyMessage):
		return ""
	default:
		b.logger.WarnContext(ctx, "Telegram turn not run", log.FieldSessionID, from.sessionKey(), log.FieldError, err)
		msg, _ := chat.ErrorReply(err)
		return msg
	}
}

// StatsText renders the session totals.
func (b *Bot) StatsText(ctx context.Context, from Sender) string {
	session := b.sessions.GetOrCreate(from.sessionKey(), from.identity())
	stats, err := session.Refresh(ctx)
	if err != nil {
		msg, _ := chat.ErrorReply(err)
		return msg
	}
	return fmt.Sprintf("Total: %s\nToday: %s\nEntries: %d",
		b.money.Format(stats.RunningTotal), b.money.Format(stats.TodayTotal), stats.EntryCount)
}

func (b *Bot) handleText(ctx context.Context, api *bot.Bot, update *botModels.Update) {
	from, ok := senderOf(update)
	if !ok || strings.HasPrefix(update.Message.Text, "/") {
		return
	}
	b.send(ctx, api, from.ChatID, b.Reply(ctx, from, update.Message.Text))
}

func (b *Bot) handleStart(ctx context.Context, api *bot.Bot, update *botModels.Update) {
	from, ok := senderOf(update)
	if !ok {
		return
	}
	b.sessions.GetOrCreate(from.sessionKey(), from.identity())
	b.send(ctx, api, from.ChatID, chat.WelcomeMessage)
}

func (b *Bot) handleReset(ctx context.Context, api *bot.Bot, update *botModels.Update) {
	from, ok := senderOf(update)
	if !ok {
		return
	}
	b.sessions.GetOrCreate(from.sessionKey(), from.identity()).Reset()
	b.send(ctx, api, from.ChatID, chat.WelcomeMessage)
}

func (b *Bot) handleStats(ctx context.Context, api *bot.Bot, update *botModels.Update) {
	from, ok := senderOf(update)
	if !ok {
		return
	}
	b.send(ctx, api, from.ChatID, b.StatsText(ctx, from))
}

func (b *Bot) send(ctx context.Context, api *bot.Bot, chatID int64, text string) {
	if text == "" {
		return
	}
	if _, err := api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send Telegram message", "chat_id", chatID, log.FieldError, err)
	}
}

const familyPrefix = "tg-chat:"

// Notify posts text into the chat behind a Telegram family. Families that
// did not come from Telegram are ignored.
func (b *Bot) Notify(ctx context.Context, familyID, text string) error {
	chatID, ok := chatForFamily(familyID)
	if !ok {
		return nil
	}
	if _, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("send notification to chat %d: %w", chatID, err)
	}
	return nil
}

func chatForFamily(familyID string) (int64, bool) {
	raw, found := strings.CutPrefix(familyID, familyPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}
