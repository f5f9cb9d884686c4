package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"post-call-insights-go/internal/config"
	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/processor"
	"post-call-insights-go/internal/rounded"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().WithError(err).Fatal("invalid configuration")
	}

	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", "post-call-insights-go").Info("starting service")

	if cfg.RoundedAPIKey == "" {
		log.Warn("ROUNDED_API_KEY not set; call lookups will fail")
	}
	calls := rounded.NewClient(cfg.RoundedAPIKey, cfg.RoundedAPIURL, 30*time.Second, log)

	settings := cfg.LLMSettings()
	svc, err := processor.New(processor.Settings{
		Source: calls,
		Generators: func(model string) (llm.Generator, error) {
			return llm.New(model, settings, log)
		},
		Extraction:   cfg.ExtractorOptions(),
		DefaultModel: cfg.DefaultModel,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build processor")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newServer(svc, calls, config.ModelNames(), log).routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("server stopped")
}
