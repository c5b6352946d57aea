// Command regimewatch runs the regime pipeline continuously, persisting a
// report for each configured instrument once per poll interval until it
// receives a shutdown signal.
package main

import (
	"context"
	"log"

	"futuresregime/config"
	"futuresregime/internal/adapters/credstore"
	"futuresregime/internal/adapters/eventwindow"
	"futuresregime/internal/adapters/obslog"
	"futuresregime/internal/adapters/quotefeed"
	"futuresregime/internal/adapters/sqlite"
	"futuresregime/internal/calibration"
	"futuresregime/internal/domain"
	"futuresregime/internal/pipeline"
	"futuresregime/internal/ports"
	"futuresregime/internal/watchloop"

	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}

	appLogger := obslog.New(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "logger initialized")

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to initialize report sink")
		log.Fatalf("FATAL: failed to initialize report sink: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "error closing report sink")
		}
	}()

	registry := calibration.NewRegistry()
	if err := registry.LoadOverrides(cfg.CalibrationOverridePath); err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to load calibration overrides")
		log.Fatalf("FATAL: failed to load calibration overrides: %v", err)
	}

	calendar, err := eventwindow.Load(cfg.EventCalendarPath)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to load event calendar")
		log.Fatalf("FATAL: failed to load event calendar: %v", err)
	}

	key, err := credstore.DecodeKeyHex(cfg.EncryptionKeyHex)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to decode token encryption key")
		log.Fatalf("FATAL: failed to decode token encryption key: %v", err)
	}
	store, err := credstore.New(cfg.TokenPath, key)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to construct credential store")
		log.Fatalf("FATAL: failed to construct credential store: %v", err)
	}

	client := quotefeed.New(quotefeed.Config{
		BaseURL: cfg.BaseURL,
		Auth: quotefeed.AuthConfig{
			AppKey:      cfg.AppKey,
			AppSecret:   cfg.AppSecret,
			RedirectURI: cfg.RedirectURI,
			AuthURL:     cfg.AuthURL,
			TokenURL:    cfg.TokenURL,
		},
		Store:     store,
		Logger:    appLogger,
		RateLimit: rate.Limit(cfg.RateLimitPerSecond),
		RateBurst: cfg.RateLimitBurst,
	})
	appLogger.Info(ctx, "quote-vendor client initialized")

	orch := pipeline.New(client, ports.SystemClock{},
		pipeline.WithEventWindow(calendar),
		pipeline.WithLogger(appLogger),
		pipeline.WithCalibrationRegistry(registry),
	)

	svc := watchloop.New(orch, repo, appLogger, []domain.Instrument{domain.ES, domain.NQ}, cfg.PollInterval)
	if err := svc.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "watch loop exited with error")
		log.Fatalf("FATAL: watch loop exited with error: %v", err)
	}

	appLogger.Info(ctx, "application finished gracefully")
}
