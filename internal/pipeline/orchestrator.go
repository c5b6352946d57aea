// Package pipeline wires a CandleSource through the contract resolver,
// feature calculator, and regime classifier to produce a RegimeReport.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"futuresregime/internal/calibration"
	"futuresregime/internal/contract"
	"futuresregime/internal/domain"
	"futuresregime/internal/features"
	"futuresregime/internal/ports"
	"futuresregime/internal/regime"
	"futuresregime/internal/session"

	"github.com/google/uuid"
)

const defaultLookbackDays = 10

type correlationIDKey struct{}

// withCorrelationID attaches id to ctx for downstream log fields.
func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// correlationIDFrom returns the id attached by withCorrelationID, or a
// freshly generated one when ctx carries none (a standalone Classify call
// not driven through ClassifyAll).
func correlationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Orchestrator produces RegimeReports for one or more instruments by
// driving the core pipeline against injected collaborators.
type Orchestrator struct {
	source     ports.CandleSource
	clock      ports.Clock
	events     ports.EventWindow
	resolver   *contract.Resolver
	calculator *features.Calculator
	classifier *regime.Classifier
	registry   *calibration.Registry
	logger     ports.Logger

	// historyProvider supplies the prior-session ranges the feature
	// calculator needs for session_range_zscore. It is optional.
	historyProvider func(instrument domain.Instrument) []float64
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithEventWindow overrides the default always-false EventWindow.
func WithEventWindow(ew ports.EventWindow) Option {
	return func(o *Orchestrator) { o.events = ew }
}

// WithLogger attaches a structured logger.
func WithLogger(l ports.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithHistoryProvider supplies prior-session ranges for session_range_zscore.
func WithHistoryProvider(fn func(instrument domain.Instrument) []float64) Option {
	return func(o *Orchestrator) { o.historyProvider = fn }
}

// WithCalibrationRegistry overrides the default registry (ES/NQ built-ins).
func WithCalibrationRegistry(reg *calibration.Registry) Option {
	return func(o *Orchestrator) { o.registry = reg }
}

// New constructs an Orchestrator around a CandleSource and Clock.
func New(source ports.CandleSource, clock ports.Clock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     source,
		clock:      clock,
		events:     ports.NoEventWindow{},
		resolver:   contract.New(),
		calculator: features.New(),
		classifier: regime.New(),
		registry:   calibration.NewRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classify runs one end-to-end classification for instrument.
func (o *Orchestrator) Classify(ctx context.Context, instrument domain.Instrument) (domain.RegimeReport, error) {
	if !instrument.Valid() {
		return domain.RegimeReport{}, fmt.Errorf("%w: %q", domain.ErrInvalidInstrument, instrument)
	}

	correlationID := correlationIDFrom(ctx)
	if o.logger != nil {
		o.logger.Debug(ctx, "starting classification run", map[string]interface{}{
			"instrument":     string(instrument),
			"correlation_id": correlationID,
		})
	}

	symbol, err := o.resolver.FrontMonth(instrument, o.clock.Now())
	if err != nil {
		return domain.RegimeReport{}, err
	}

	oneMin, err := o.source.Fetch(ctx, symbol, domain.Freq1Min, defaultLookbackDays)
	if err != nil {
		return domain.RegimeReport{}, fmt.Errorf("pipeline: fetch 1m candles: %w", err)
	}
	fiveMin, err := o.source.Fetch(ctx, symbol, domain.Freq5Min, defaultLookbackDays)
	if err != nil {
		return domain.RegimeReport{}, fmt.Errorf("pipeline: fetch 5m candles: %w", err)
	}

	cal, err := o.registry.Get(instrument)
	if err != nil {
		return domain.RegimeReport{}, err
	}

	now := o.clock.Now()
	var priorRanges []float64
	if o.historyProvider != nil {
		priorRanges = o.historyProvider(instrument)
	}

	f, err := o.calculator.Calculate(oneMin, fiveMin, cal, now, priorRanges)
	if err != nil {
		return domain.RegimeReport{}, err
	}

	phase := session.Phase(now)
	eventActive := o.events != nil && o.events.IsEventActive(now)

	report := o.classifier.Classify(f, cal, phase, eventActive, instrument, now)

	if o.logger != nil {
		o.logger.Info(ctx, "classified regime", map[string]interface{}{
			"instrument":     string(instrument),
			"symbol":         string(symbol),
			"regime":         string(report.PrimaryRegime),
			"confidence":     report.Confidence,
			"correlation_id": correlationID,
		})
	}

	return report, nil
}

// ClassifyAll runs Classify concurrently for every instrument given,
// returning the reports produced and any per-instrument errors collected.
// The core is re-entrant: each goroutine owns its own immutable
// Calibration and candle slices, with no shared mutable state.
func (o *Orchestrator) ClassifyAll(ctx context.Context, instruments []domain.Instrument) (map[domain.Instrument]domain.RegimeReport, map[domain.Instrument]error) {
	reports := make(map[domain.Instrument]domain.RegimeReport, len(instruments))
	errs := make(map[domain.Instrument]error, len(instruments))

	ctx = withCorrelationID(ctx, uuid.NewString())

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, instrument := range instruments {
		wg.Add(1)
		go func(instrument domain.Instrument) {
			defer wg.Done()
			report, err := o.Classify(ctx, instrument)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[instrument] = err
				return
			}
			reports[instrument] = report
		}(instrument)
	}
	wg.Wait()

	return reports, errs
}
