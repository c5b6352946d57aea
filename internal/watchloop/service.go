// Package watchloop drives the regime pipeline on a fixed interval,
// persisting each cycle's reports and handling graceful shutdown.
package watchloop

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futuresregime/internal/domain"
	"futuresregime/internal/pipeline"
	"futuresregime/internal/ports"
)

// Service repeatedly classifies a fixed set of instruments and persists
// the resulting reports until its context is canceled or a shutdown
// signal is received.
type Service struct {
	orchestrator *pipeline.Orchestrator
	sink         ports.ReportSink
	logger       ports.Logger
	instruments  []domain.Instrument
	interval     time.Duration
}

// New constructs a watch-loop Service.
func New(orchestrator *pipeline.Orchestrator, sink ports.ReportSink, logger ports.Logger, instruments []domain.Instrument, interval time.Duration) *Service {
	return &Service{
		orchestrator: orchestrator,
		sink:         sink,
		logger:       logger,
		instruments:  instruments,
		interval:     interval,
	}
}

// Start runs the polling loop until ctx is canceled or SIGINT/SIGTERM is
// received, classifying immediately on entry and then once per interval.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "starting regime watch loop", map[string]interface{}{
		"interval":    s.interval.String(),
		"instruments": len(s.instruments),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "watch loop stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	reports, errs := s.orchestrator.ClassifyAll(ctx, s.instruments)
	for instrument, err := range errs {
		s.logger.Warn(ctx, "classification failed", map[string]interface{}{
			"instrument": string(instrument),
			"error":      err.Error(),
		})
	}
	for instrument, report := range reports {
		if err := s.sink.Save(ctx, report); err != nil {
			s.logger.Error(ctx, err, "failed to persist regime report", map[string]interface{}{
				"instrument": string(instrument),
			})
			continue
		}
		s.logger.Debug(ctx, "persisted regime report", map[string]interface{}{
			"instrument": string(instrument),
			"regime":     string(report.PrimaryRegime),
		})
	}
}
