package features

import (
	"testing"
	"time"

	"futuresregime/internal/calibration"
	"futuresregime/internal/domain"
	"futuresregime/internal/session"
	"github.com/stretchr/testify/require"
)

func sessionOpen() time.Time {
	return time.Date(2025, 12, 16, 8, 30, 0, 0, session.Central)
}

func buildOneMinSeries(n int, closeAt func(i int) float64, volumeAt func(i int) int64) domain.CandleSeries {
	open := sessionOpen()
	bars := make([]domain.Candle, n)
	prevClose := closeAt(0)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		high := c
		low := c
		if i > 0 {
			if prevClose > high {
				high = prevClose
			}
			if prevClose < low {
				low = prevClose
			}
		}
		bars[i] = domain.Candle{
			Timestamp: open.Add(time.Duration(i) * time.Minute),
			Open:      prevClose,
			High:      high + 0.01,
			Low:       low - 0.01,
			Close:     c,
			Volume:    volumeAt(i),
		}
		prevClose = c
	}
	return domain.CandleSeries{Frequency: domain.Freq1Min, Bars: bars}
}

func buildFiveMinSeries(n int, closeAt func(i int) float64, volumeAt func(i int) int64) domain.CandleSeries {
	open := sessionOpen()
	bars := make([]domain.Candle, n)
	prevClose := closeAt(0)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		high := c
		low := c
		if i > 0 {
			if prevClose > high {
				high = prevClose
			}
			if prevClose < low {
				low = prevClose
			}
		}
		bars[i] = domain.Candle{
			Timestamp: open.Add(time.Duration(i) * 5 * time.Minute),
			Open:      prevClose,
			High:      high + 0.05,
			Low:       low - 0.05,
			Close:     c,
			Volume:    volumeAt(i),
		}
		prevClose = c
	}
	return domain.CandleSeries{Frequency: domain.Freq5Min, Bars: bars}
}

func TestCalculate_InsufficientOneMinBars(t *testing.T) {
	calc := New()
	oneMin := buildOneMinSeries(30, func(i int) float64 { return 5800 }, func(i int) int64 { return 100 })
	fiveMin := buildFiveMinSeries(20, func(i int) float64 { return 5800 }, func(i int) int64 { return 500 })
	reg := calibration.NewRegistry()
	es, _ := reg.Get(domain.ES)

	now := sessionOpen().Add(30 * time.Minute)
	_, err := calc.Calculate(oneMin, fiveMin, es, now, nil)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestCalculate_InsufficientFiveMinBars(t *testing.T) {
	calc := New()
	oneMin := buildOneMinSeries(60, func(i int) float64 { return 5800 }, func(i int) int64 { return 100 })
	fiveMin := buildFiveMinSeries(19, func(i int) float64 { return 5800 }, func(i int) int64 { return 500 })
	reg := calibration.NewRegistry()
	es, _ := reg.Get(domain.ES)

	now := sessionOpen().Add(60 * time.Minute)
	_, err := calc.Calculate(oneMin, fiveMin, es, now, nil)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestCalculate_FlatMarket_VWAPAndOverlap(t *testing.T) {
	calc := New()
	oneMin := buildOneMinSeries(90, func(i int) float64 {
		if i%2 == 0 {
			return 5800
		}
		return 5802
	}, func(i int) int64 { return 100 })
	fiveMin := buildFiveMinSeries(24, func(i int) float64 {
		if i%2 == 0 {
			return 5800
		}
		return 5802
	}, func(i int) int64 { return 500 })
	reg := calibration.NewRegistry()
	es, _ := reg.Get(domain.ES)

	now := sessionOpen().Add(90 * time.Minute)
	f, err := calc.Calculate(oneMin, fiveMin, es, now, nil)
	require.NoError(t, err)

	vwap, ok := f.VWAP.Get()
	require.True(t, ok)
	require.InDelta(t, 5801, vwap, 2)

	overlap, ok := f.BarOverlapRatio.Get()
	require.True(t, ok)
	require.Greater(t, overlap, 0.0)
}

func TestCalculate_TrendingMarket_DirectionalEfficiency(t *testing.T) {
	calc := New()
	oneMin := buildOneMinSeries(90, func(i int) float64 { return 20000 + float64(i)*3 }, func(i int) int64 { return 200 })
	fiveMin := buildFiveMinSeries(24, func(i int) float64 { return 20000 + float64(i)*15 }, func(i int) int64 { return 1000 })
	reg := calibration.NewRegistry()
	nq, _ := reg.Get(domain.NQ)

	now := sessionOpen().Add(90 * time.Minute)
	f, err := calc.Calculate(oneMin, fiveMin, nq, now, nil)
	require.NoError(t, err)

	eff, ok := f.DirectionalEfficiency.Get()
	require.True(t, ok)
	require.InDelta(t, 1.0, eff, 0.01)
}

func TestCalculate_VolumeVsExpected(t *testing.T) {
	calc := New()
	oneMin := buildOneMinSeries(60, func(i int) float64 { return 5800 }, func(i int) int64 { return 1000 })
	fiveMin := buildFiveMinSeries(20, func(i int) float64 { return 5800 }, func(i int) int64 { return 5000 })
	reg := calibration.NewRegistry()
	es, _ := reg.Get(domain.ES)

	now := sessionOpen().Add(60 * time.Minute)
	f, err := calc.Calculate(oneMin, fiveMin, es, now, nil)
	require.NoError(t, err)
	require.Equal(t, int64(60000), f.CumulativeVolume)
	_, ok := f.VolumeVsExpected.Get()
	require.True(t, ok)
}
