package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"quiz-json/api/internal/app"
	"quiz-json/api/internal/config"
	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/httpserver"
	"quiz-json/api/internal/util"
)

func main() {
	image := pflag.String("image", "", "convert one image file, print the JSON to stdout and exit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := cfg.NewLogger("quiz-json")

	a, err := app.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *image != "" {
		if err := convertFile(ctx, a.Converter, *image); err != nil {
			logger.Error().Err(err).Str("file", *image).Msg("conversion failed")
			fmt.Fprintln(os.Stderr, converter.UserMessage)
			os.Exit(1)
		}
		return
	}

	go a.SweepSessions(ctx, time.Minute)

	srv := httpserver.New(a.Mux(), httpserver.Options{
		Addr:         "0.0.0.0:" + cfg.Port,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		Logger:       logger,
	})
	if err := httpserver.Run(ctx, srv, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server")
	}
	logger.Info().Msg("bye")
}

func convertFile(ctx context.Context, conv *converter.Converter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := conv.Convert(ctx, converter.Input{
		Image:    f,
		MIMEType: util.MIMEFromExt(filepath.Ext(path)),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, res.JSON)
	return err
}
