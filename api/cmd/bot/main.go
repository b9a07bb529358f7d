package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quiz-json/api/internal/app"
	"quiz-json/api/internal/config"
	"quiz-json/api/internal/httpserver"
	"quiz-json/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := cfg.NewLogger("quiz-json-bot")
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN is empty")
	}

	a, err := app.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	bot.Debug = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go a.SweepSessions(ctx, time.Minute)

	r := &telegram.Router{
		Bot:           bot,
		Sessions:      a.Sessions,
		Converter:     a.Converter,
		HTTPClient:    a.HTTPClient,
		Logger:        logger.With().Str("component", "telegram").Logger(),
		MaxImageBytes: cfg.MaxUploadBytes,
	}
	handle := func(upd tgbotapi.Update) {
		go r.HandleUpdate(ctx, upd)
	}

	mux := a.Mux()
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := registerWebhook(bot, mux, webhookURL, handle, logger); err != nil {
			logger.Fatal().Err(err).Msg("webhook")
		}
	} else {
		go telegram.Poll(ctx, bot, logger, handle)
	}

	srv := httpserver.New(mux, httpserver.Options{
		Addr:         "0.0.0.0:" + cfg.Port,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		Logger:       logger,
	})
	if err := httpserver.Run(ctx, srv, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server")
	}
	logger.Info().Msg("bye")
}

// registerWebhook points Telegram at baseURL and mounts the receiving
// handler on mux. Updates are acknowledged before conversion runs.
func registerWebhook(bot *tgbotapi.BotAPI, mux *http.ServeMux, baseURL string, handle func(tgbotapi.Update), logger zerolog.Logger) error {
	path := telegram.WebhookPath(bot.Token)
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram: bad webhook update")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		handle(*upd)
	})
	logger.Info().Msg("telegram webhook registered")
	return nil
}
