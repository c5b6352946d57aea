package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseCandle() Candle {
	return Candle{
		Timestamp: time.Date(2025, 12, 16, 9, 0, 0, 0, time.UTC),
		Open:      100,
		High:      105,
		Low:       99,
		Close:     102,
		Volume:    1000,
	}
}

func TestCandle_Validate_Valid(t *testing.T) {
	require.NoError(t, baseCandle().Validate())
}

func TestCandle_Validate_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c Candle) Candle
	}{
		{
			name: "low above open",
			mutate: func(c Candle) Candle {
				c.Low = c.Open + 1
				return c
			},
		},
		{
			name: "low above close",
			mutate: func(c Candle) Candle {
				c.Low = c.Close + 1
				return c
			},
		},
		{
			name: "high below open",
			mutate: func(c Candle) Candle {
				c.High = c.Open - 1
				return c
			},
		},
		{
			name: "high below close",
			mutate: func(c Candle) Candle {
				c.High = c.Close - 1
				return c
			},
		},
		{
			name: "low above high",
			mutate: func(c Candle) Candle {
				c.Low = c.High + 1
				return c
			},
		},
		{
			name: "negative volume",
			mutate: func(c Candle) Candle {
				c.Volume = -1
				return c
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.mutate(baseCandle())
			err := c.Validate()
			assert.ErrorIs(t, err, ErrInvalidCandle)
		})
	}
}

func oneMinSeries(n int) CandleSeries {
	start := time.Date(2025, 12, 16, 9, 0, 0, 0, time.UTC)
	bars := make([]Candle, n)
	for i := 0; i < n; i++ {
		c := baseCandle()
		c.Timestamp = start.Add(time.Duration(i) * time.Minute)
		bars[i] = c
	}
	return CandleSeries{Frequency: Freq1Min, Bars: bars}
}

func TestCandleSeries_Validate_Valid(t *testing.T) {
	require.NoError(t, oneMinSeries(5).Validate())
}

func TestCandleSeries_Validate_PropagatesPerCandleError(t *testing.T) {
	s := oneMinSeries(3)
	s.Bars[1].Volume = -5
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidCandle)
}

func TestCandleSeries_Validate_NonIncreasingTimestamps(t *testing.T) {
	s := oneMinSeries(3)
	s.Bars[2].Timestamp = s.Bars[1].Timestamp
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidCandle)
	assert.ErrorContains(t, err, "not strictly increasing")
}

func TestCandleSeries_Validate_DecreasingTimestamp(t *testing.T) {
	s := oneMinSeries(3)
	s.Bars[2].Timestamp = s.Bars[0].Timestamp
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidCandle)
}

func TestCandleSeries_Validate_NonUniformSpacing(t *testing.T) {
	s := oneMinSeries(3)
	s.Bars[2].Timestamp = s.Bars[1].Timestamp.Add(2 * time.Minute)
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidCandle)
	assert.ErrorContains(t, err, "non-uniform spacing")
}

func TestCandleSeries_Validate_EmptyIsValid(t *testing.T) {
	require.NoError(t, CandleSeries{Frequency: Freq5Min}.Validate())
}

func TestCandleSeries_Validate_SingleBarIsValid(t *testing.T) {
	s := oneMinSeries(1)
	require.NoError(t, s.Validate())
}
