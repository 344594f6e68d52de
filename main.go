package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"MudaBot/ai/gpt"
	"MudaBot/bot"
	"MudaBot/bot/intake"
	"MudaBot/bot/whatsapp"
	"MudaBot/internal/config"
	repository "MudaBot/internal/database"
	"MudaBot/internal/http-server/api"
	"MudaBot/internal/lib/logger"
	"MudaBot/internal/lib/sl"
	"MudaBot/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Telegram alert bot: forwards error-level records to the admin chat
	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram alert bot initialized")
		}
	}

	lg.Info("starting mudabot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
		return
	}
	if db == nil {
		lg.Error("mongo is required for quote persistence, enable it in the config")
		return
	}
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	estimator := gpt.NewEstimator(conf, lg)
	lg.With(
		sl.Secret("openai_key", conf.OpenAI.ApiKey),
		slog.String("model", conf.OpenAI.Model),
	).Info("estimator initialized")

	sessionTTL := time.Duration(conf.Intake.SessionTTLMinutes) * time.Minute

	var store intake.SessionStore
	if conf.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		store = intake.NewRedisStore(client, sessionTTL, lg)
		lg.With(slog.String("addr", conf.Redis.Addr)).Info("redis session store initialized")
	} else {
		memStore := intake.NewMemoryStore(sessionTTL, lg)
		go memStore.Sweep(context.Background(), time.Duration(conf.Intake.SweepIntervalMins)*time.Minute)
		store = memStore
		lg.Info("in-memory session store initialized")
	}

	waBot := whatsapp.NewWhatsAppBot(
		conf.WhatsApp.AccessToken,
		conf.WhatsApp.VerifyToken,
		conf.WhatsApp.AppSecret,
		conf.WhatsApp.PhoneNumberID,
		lg,
	)

	hub := ws.NewHub(lg)
	go hub.Run()

	processor := intake.NewProcessor(store, waBot, estimator, db, lg)
	processor.MinReplyInterval = time.Duration(conf.Intake.MinReplySeconds) * time.Second
	processor.CollabTimeout = time.Duration(conf.Intake.CollabTimeoutSecs) * time.Second
	processor.SetEventListener(hub)

	waBot.SetMessageHandler(processor)

	// *** blocking start with http server ***
	err = api.New(conf, lg, waBot, hub, db)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
