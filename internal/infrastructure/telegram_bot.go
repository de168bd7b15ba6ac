package infrastructure

import (
	"context"
	"fmt"
	"html"
	"orderchat/internal/entities"
	"orderchat/internal/interfaces/textview"
	"orderchat/internal/usecases"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const keyboardRowSize = 2

// telegramSender is the part of *tgbotapi.BotAPI the bot needs
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramBot puts a chat widget behind every Telegram chat
type TelegramBot struct {
	api      *tgbotapi.BotAPI
	sender   telegramSender
	sessions *SessionManager
	limiter  *OwnerLimiter
	log      zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// NewTelegramBot connects to the Bot API. limiter may be nil.
func NewTelegramBot(token string, sessions *SessionManager, limiter *OwnerLimiter, log zerolog.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot := newTelegramBot(api, sessions, limiter, log)
	bot.api = api
	return bot, nil
}

func newTelegramBot(sender telegramSender, sessions *SessionManager, limiter *OwnerLimiter, log zerolog.Logger) *TelegramBot {
	return &TelegramBot{
		sender:   sender,
		sessions: sessions,
		limiter:  limiter,
		log:      log.With().Str("component", "telegram").Logger(),
		stop:     make(chan struct{}),
	}
}

// Run polls for updates until ctx is done or Stop is called. Each update is
// handled on its own goroutine.
func (t *TelegramBot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	t.log.Info().Str("bot", t.api.Self.UserName).Msg("started polling")
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("stopped polling")
			return
		case <-t.stop:
			t.log.Info().Msg("stopped polling")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.HandleUpdate(ctx, update)
			}()
		}
	}
}

// Stop ends polling and waits for in-flight updates
func (t *TelegramBot) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.wg.Wait()
}

// HandleUpdate routes one update to the chat's widget. /start always opens a
// fresh conversation.
func (t *TelegramBot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	chatID := update.Message.Chat.ID
	key := ChatKey(chatID)
	setup := func(w *usecases.ChatWidget) {
		w.OnAppend(t.deliverer(chatID))
	}

	if t.limiter != nil && !t.limiter.Allow(key) {
		t.log.Warn().Int64("chat_id", chatID).Msg("rate limit exceeded, update dropped")
		return
	}

	if update.Message.IsCommand() && update.Message.Command() == "start" {
		_ = t.sessions.Remove(key, key)
		t.sessions.GetOrCreate(key, key, setup)
		return
	}

	session := t.sessions.GetOrCreate(key, key, setup)
	if err := session.Widget.Submit(ctx, update.Message.Text); err != nil {
		t.log.Warn().Err(err).Int64("chat_id", chatID).Msg("command failed")
	}
}

// deliverer forwards bot bubbles to the chat. User bubbles are already on screen.
func (t *TelegramBot) deliverer(chatID int64) usecases.AppendListener {
	return func(msg entities.Message, replies []entities.QuickReply) {
		if msg.Sender != entities.SenderBot {
			return
		}
		if _, err := t.sender.Send(NewTelegramMessage(chatID, msg, replies)); err != nil {
			t.log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
		}
	}
}

// ChatKey is the session key and owner id of a Telegram chat
func ChatKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// NewTelegramMessage renders a bubble for Telegram: tables become <pre> blocks
// and the active quick replies become the reply keyboard.
func NewTelegramMessage(chatID int64, msg entities.Message, replies []entities.QuickReply) tgbotapi.MessageConfig {
	text := html.EscapeString(msg.Text)
	if msg.IsHTML {
		text = "<pre>" + html.EscapeString(textview.Render(msg.Text)) + "</pre>"
	}

	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	if len(replies) > 0 {
		out.ReplyMarkup = QuickReplyKeyboard(replies)
	} else {
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return out
}

// QuickReplyKeyboard lays the replies out two per row
func QuickReplyKeyboard(replies []entities.QuickReply) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton

	for i, r := range replies {
		row = append(row, tgbotapi.NewKeyboardButton(r.Label))
		if (i+1)%keyboardRowSize == 0 {
			rows = append(rows, row)
			row = []tgbotapi.KeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}
