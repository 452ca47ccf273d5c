package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"Sobaken/bot/chat"
	"Sobaken/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// Engine receives normalized inbound events.
type Engine interface {
	HandleEvent(ctx context.Context, chatID chat.ChatID, in chat.UserInput) error
}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
	engine      Engine
	ctx         context.Context
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
		ctx:         context.Background(),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// API exposes the bot client for the messenger.
func (t *TgBot) API() *tgbotapi.Bot {
	return t.api
}

// SetEngine sets the engine inbound events are routed to.
func (t *TgBot) SetEngine(engine Engine) {
	t.engine = engine
}

// Start polls for updates until ctx is cancelled.
func (t *TgBot) Start(ctx context.Context) error {
	t.ctx = ctx

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, c *ext.Context, err error) ext.DispatcherAction {
			t.log.Warn("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCallback(hasData, t.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, t.handleMessage))

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("telegram bot started", slog.String("username", t.botUsername))

	<-ctx.Done()
	updater.Stop()
	t.log.Info("telegram bot stopped")
	return nil
}

// SendMessage delivers a plain message to the admin chat.
func (t *TgBot) SendMessage(msg string) {
	if t.adminId == 0 {
		return
	}
	_, err := t.api.SendMessage(t.adminId, msg, &tgbotapi.SendMessageOpts{})
	if err != nil {
		// debug level keeps the admin log handler from looping back here
		t.log.Debug("sending admin message", sl.Err(err))
	}
}

func hasData(cq *tgbotapi.CallbackQuery) bool {
	return cq.Data != ""
}

func (t *TgBot) handleCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.engine == nil {
		return nil
	}
	cq := ctx.CallbackQuery
	chatID := chat.ChatID(strconv.FormatInt(ctx.EffectiveChat.Id, 10))

	err := t.engine.HandleEvent(t.ctx, chatID, chat.Button(cq.Data, cq.Id))
	if err != nil {
		t.log.Error("callback",
			slog.String("chat_id", string(chatID)),
			slog.String("data", cq.Data),
			sl.Err(err),
		)
	}
	return nil
}

func (t *TgBot) handleMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.engine == nil {
		return nil
	}
	chatID := chat.ChatID(strconv.FormatInt(ctx.EffectiveChat.Id, 10))
	in := ParseText(ctx.EffectiveMessage.Text, t.botUsername)

	err := t.engine.HandleEvent(t.ctx, chatID, in)
	if err != nil {
		t.log.Error("message",
			slog.String("chat_id", string(chatID)),
			slog.String("kind", in.Kind.String()),
			sl.Err(err),
		)
	}
	return nil
}

// ParseText turns "/start@SobakenBot arg" into a command input and anything
// else into free text. Commands addressed to another bot are treated as text.
func ParseText(text, botName string) chat.UserInput {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) == 1 {
		return chat.Text(text)
	}

	name := strings.Fields(trimmed[1:])[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		if botName != "" && !strings.EqualFold(target, botName) {
			return chat.Text(text)
		}
		name = name[:at]
	}
	return chat.Command(strings.ToLower(name))
}
