package main

import (
	"Sobaken/bot"
	"Sobaken/bot/catalog"
	"Sobaken/bot/chat"
	"Sobaken/bot/chat/telegram"
	"Sobaken/impl/core"
	"Sobaken/internal/config"
	"Sobaken/internal/database"
	"Sobaken/internal/http-server/api"
	"Sobaken/internal/lib/logger"
	"Sobaken/internal/lib/sl"
	"Sobaken/internal/scheduler"
	"Sobaken/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting sobaken", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	if !conf.Telegram.Enabled {
		lg.Error("telegram is disabled, nothing to serve")
		os.Exit(1)
	}

	tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
	if err != nil {
		lg.Error("failed to initialize telegram bot", sl.Err(err))
		os.Exit(1)
	}
	// errors are forwarded to the admin chat
	lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
	lg.With(
		slog.String("bot_name", conf.Telegram.BotName),
	).Info("telegram bot initialized")

	durations := make([]chat.DurationChoice, len(conf.Conversation.Durations))
	for i, d := range conf.Conversation.Durations {
		durations[i] = chat.DurationChoice{Payload: d.Payload, Label: d.Label, Wait: d.Wait}
	}

	texts, err := catalog.New(catalog.Options{
		Texts:        conf.Catalog.Texts,
		Resting:      conf.Catalog.Photos.Resting,
		Walk:         conf.Catalog.Photos.Walk,
		Durations:    durations,
		StatusPhrase: conf.Conversation.StatusPhrase,
	})
	if err != nil {
		lg.Error("content catalog", sl.Err(err))
		os.Exit(1)
	}

	machine := chat.NewMachine(chat.MachineOptions{
		Durations:        durations,
		ReminderAfter:    conf.Conversation.ReminderAfter,
		StatusPhotoDelay: conf.Conversation.StatusPhotoDelay,
	})
	router := chat.NewLifecycleRouter(machine, conf.Conversation.StatusPhrase)
	sched := scheduler.New(lg)

	store := chat.NewMemoryStore()
	engine := chat.NewChatEngine(
		store,
		router,
		texts,
		telegram.NewMessenger(tgBot.API()),
		sched,
		lg,
	)
	tgBot.SetEngine(engine)

	handler := core.New(lg)
	handler.SetAuthKey(conf.Listen.ApiKey)
	handler.SetEngine(engine)
	handler.SetChains(sched)
	handler.SetStore(store)
	engine.SetEventListener(handler)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err = db.Ping(pingCtx); err != nil {
			lg.With(
				sl.Err(err),
			).Warn("mongo ping, journal writes will fail until it is reachable")
		}
		cancel()
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return tgBot.Start(ctx)
	})

	if conf.Listen.Enabled {
		hub := ws.NewHub(lg)
		handler.SetBroadcaster(hub)
		group.Go(func() error {
			hub.Run(ctx)
			return nil
		})

		server := api.New(conf, lg, handler, hub)
		group.Go(func() error {
			return server.Start(ctx)
		})
	}

	if err = group.Wait(); err != nil {
		lg.Error("service error", sl.Err(err))
	}

	// pending chain steps are dropped, chats keep their last state until restart
	sched.Stop()
	lg.Info("service stopped")
}
