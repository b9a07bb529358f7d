package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"quiz-json/api/internal/config"
	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/format"
	"quiz-json/api/internal/handle"
	"quiz-json/api/internal/httpclient"
	"quiz-json/api/internal/httpserver"
	"quiz-json/api/internal/inference"
	"quiz-json/api/internal/prompt"
	"quiz-json/api/internal/session"
)

// App is the wired conversion pipeline shared by the web and bot front ends.
type App struct {
	Config     config.Config
	Logger     zerolog.Logger
	Converter  *converter.Converter
	Sessions   *session.Store
	Registry   *prometheus.Registry
	HTTPClient *http.Client
}

// Build loads the prompt spec and assembles the pipeline. A broken prompt
// file is a startup error; a missing API key is not.
func Build(cfg config.Config, logger zerolog.Logger) (*App, error) {
	spec := prompt.Default()
	if cfg.PromptFile != "" {
		var err error
		if spec, err = prompt.Load(cfg.PromptFile); err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		logger.Info().Str("file", cfg.PromptFile).Msg("prompt spec loaded")
	}

	var validator *format.Validator
	if cfg.StrictSchema {
		var err error
		if validator, err = format.NewValidator(spec); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}

	httpc := httpclient.New(httpclient.Options{PreferIPv4: cfg.PreferIPv4, Timeout: cfg.HTTPTimeout})
	engines := &inference.Engines{
		Genai: inference.NewGenai(cfg.GeminiEndpoint),
		REST: inference.NewREST(inference.RESTOptions{
			BaseURL:    cfg.GeminiBaseURL,
			APIVersion: cfg.GeminiAPIVersion,
			HTTPClient: httpc,
		}),
	}
	engine, err := engines.GetEngine(cfg.Provider)
	if err != nil {
		return nil, err
	}

	if err := inference.CheckCredential(cfg.GeminiAPIKey); err != nil {
		logger.Warn().Msg("GEMINI_API_KEY is not set; conversions will fail until it is")
	}

	clientLogger := logger.With().Str("component", "inference").Logger()
	client := inference.New(engine, inference.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: &clientLogger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	convLogger := logger.With().Str("component", "converter").Logger()
	conv := converter.New(client, spec, format.New(validator), converter.Options{
		Timeout: cfg.RequestTimeout,
		Logger:  &convLogger,
		Metrics: converter.NewMetrics(reg),
	})

	logger.Info().
		Str("engine", engine.Name()).
		Str("model", client.Model()).
		Bool("strict_schema", validator != nil).
		Msg("pipeline ready")

	return &App{
		Config:     cfg,
		Logger:     logger,
		Converter:  conv,
		Sessions:   session.NewStore(session.Options{IdleTTL: cfg.SessionTTL}),
		Registry:   reg,
		HTTPClient: httpc,
	}, nil
}

// Mux returns the HTTP API plus /healthz and /metrics.
func (a *App) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}))

	handleLogger := a.Logger.With().Str("component", "http").Logger()
	api := handle.New(a.Converter, a.Sessions, handle.Options{
		MaxUploadBytes: a.Config.MaxUploadBytes,
		Logger:         &handleLogger,
	})
	v1 := http.NewServeMux()
	api.Register(v1)
	mux.Handle("/v1/", httpserver.WithRateLimit(v1, a.Config.RateLimitRPS, a.Config.RateLimitBurst))
	return mux
}

// SweepSessions drops idle sessions every interval until ctx is done.
func (a *App) SweepSessions(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := a.Sessions.Sweep(now); n > 0 {
				a.Logger.Debug().Int("dropped", n).Int("live", a.Sessions.Len()).Msg("idle sessions swept")
			}
		}
	}
}
