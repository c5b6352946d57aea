// Command regimectl runs one classification cycle against the configured
// quote vendor and prints the resulting RegimeReport(s) as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

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

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	instrumentFlag string
	persistFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "regimectl",
	Short: "Classify the current ES/NQ market regime",
	Long: `regimectl runs one classification cycle against live market data and
prints the resulting regime report as JSON. Use --instrument to restrict the
run to a single contract, or omit it to classify both ES and NQ.`,
	RunE: runClassify,
}

func init() {
	rootCmd.Flags().StringVar(&instrumentFlag, "instrument", "", "restrict the run to ES or NQ (default: both)")
	rootCmd.Flags().BoolVar(&persistFlag, "persist", false, "save the resulting report(s) to the configured database")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "regimectl: %v\n", err)
		os.Exit(1)
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	appLogger := obslog.New(cfg.LogLevel)
	ctx := cmd.Context()

	orch, sink, closeFn, err := wireOrchestrator(cfg, appLogger, persistFlag)
	if err != nil {
		return err
	}
	defer closeFn()

	instruments, err := resolveInstruments(instrumentFlag)
	if err != nil {
		return err
	}

	reports, errs := orch.ClassifyAll(ctx, instruments)
	for instrument, err := range errs {
		appLogger.Warn(ctx, "classification failed", map[string]interface{}{
			"instrument": string(instrument),
			"error":      err.Error(),
		})
	}

	for _, instrument := range instruments {
		report, ok := reports[instrument]
		if !ok {
			continue
		}
		if persistFlag && sink != nil {
			if err := sink.Save(ctx, report); err != nil {
				appLogger.Error(ctx, err, "failed to persist report", map[string]interface{}{"instrument": string(instrument)})
			}
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report for %s: %w", instrument, err)
		}
		fmt.Println(string(out))
	}

	if len(reports) == 0 {
		return fmt.Errorf("no reports produced")
	}
	return nil
}

func resolveInstruments(raw string) ([]domain.Instrument, error) {
	if raw == "" {
		return []domain.Instrument{domain.ES, domain.NQ}, nil
	}
	instrument, err := domain.ParseInstrument(raw)
	if err != nil {
		return nil, err
	}
	return []domain.Instrument{instrument}, nil
}

// wireOrchestrator assembles the production Orchestrator: calibration
// registry with operator overrides, event calendar, credential-backed
// quote-vendor client, and (when persist is requested) the SQLite sink.
func wireOrchestrator(cfg *config.Config, logger ports.Logger, persist bool) (*pipeline.Orchestrator, ports.ReportSink, func(), error) {
	registry := calibration.NewRegistry()
	if err := registry.LoadOverrides(cfg.CalibrationOverridePath); err != nil {
		return nil, nil, nil, fmt.Errorf("load calibration overrides: %w", err)
	}

	calendar, err := eventwindow.Load(cfg.EventCalendarPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load event calendar: %w", err)
	}

	key, err := credstore.DecodeKeyHex(cfg.EncryptionKeyHex)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := credstore.New(cfg.TokenPath, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("construct credential store: %w", err)
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
		Logger:    logger,
		RateLimit: rate.Limit(cfg.RateLimitPerSecond),
		RateBurst: cfg.RateLimitBurst,
	})

	closeFn := func() {}
	var sink ports.ReportSink
	if persist {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: logger})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("construct report sink: %w", err)
		}
		sink = repo
		closeFn = func() { repo.Close() }
	}

	orch := pipeline.New(client, ports.SystemClock{},
		pipeline.WithEventWindow(calendar),
		pipeline.WithLogger(logger),
		pipeline.WithCalibrationRegistry(registry),
	)

	return orch, sink, closeFn, nil
}
