package pipeline

import (
	"context"
	"testing"
	"time"

	"futuresregime/internal/domain"
	"futuresregime/internal/session"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type fakeSource struct{}

func (fakeSource) Fetch(ctx context.Context, symbol domain.Symbol, frequency domain.Frequency, lookbackDays int) (domain.CandleSeries, error) {
	open := time.Date(2025, 12, 16, 8, 30, 0, 0, session.Central)
	n := 90
	step := time.Minute
	if frequency == domain.Freq5Min {
		n = 24
		step = 5 * time.Minute
	}
	bars := make([]domain.Candle, n)
	price := 5800.0
	for i := 0; i < n; i++ {
		price += 0.5
		bars[i] = domain.Candle{
			Timestamp: open.Add(time.Duration(i) * step),
			Open:      price - 0.5,
			High:      price + 0.2,
			Low:       price - 0.7,
			Close:     price,
			Volume:    1000,
		}
	}
	return domain.CandleSeries{Frequency: frequency, Bars: bars}, nil
}

func TestOrchestrator_Classify(t *testing.T) {
	now := time.Date(2025, 12, 16, 10, 0, 0, 0, session.Central)
	orch := New(fakeSource{}, fixedClock{now})

	report, err := orch.Classify(context.Background(), domain.ES)
	require.NoError(t, err)
	require.Equal(t, domain.ES, report.Instrument)
	require.NotEmpty(t, report.PrimaryRegime)
}

func TestOrchestrator_Classify_InvalidInstrument(t *testing.T) {
	now := time.Date(2025, 12, 16, 10, 0, 0, 0, session.Central)
	orch := New(fakeSource{}, fixedClock{now})

	_, err := orch.Classify(context.Background(), domain.Instrument("CL"))
	require.ErrorIs(t, err, domain.ErrInvalidInstrument)
}

func TestOrchestrator_ClassifyAll(t *testing.T) {
	now := time.Date(2025, 12, 16, 10, 0, 0, 0, session.Central)
	orch := New(fakeSource{}, fixedClock{now})

	reports, errs := orch.ClassifyAll(context.Background(), []domain.Instrument{domain.ES, domain.NQ})
	require.Empty(t, errs)
	require.Len(t, reports, 2)
	require.Contains(t, reports, domain.ES)
	require.Contains(t, reports, domain.NQ)
}
