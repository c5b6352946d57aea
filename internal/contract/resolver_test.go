package contract

import (
	"testing"
	"time"

	"futuresregime/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestFrontMonth_BasicQuarter(t *testing.T) {
	r := New()
	// Well before the March 2025 expiration (third Friday = 2025-03-21),
	// and outside the rollover window.
	sym, err := r.FrontMonth(domain.ES, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.Symbol("/ESH25"), sym)
}

func TestFrontMonth_RollsWithinWindow(t *testing.T) {
	r := New()
	// 2025-03-21 is the third Friday of March 2025; 5 days before that is
	// within the 10-day rollover window, so June should be emitted.
	sym, err := r.FrontMonth(domain.NQ, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.Symbol("/NQM25"), sym)
}

func TestFrontMonth_DecemberWrapsToMarchNextYear(t *testing.T) {
	r := New()
	// 2025-12-19 is the third Friday of December 2025; 3 days before is
	// inside the rollover window, so the contract should roll to March 2026.
	sym, err := r.FrontMonth(domain.ES, time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.Symbol("/ESH26"), sym)
}

func TestFrontMonth_InvalidInstrument(t *testing.T) {
	r := New()
	_, err := r.FrontMonth(domain.Instrument("CL"), time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidInstrument)
}

func TestExpiration_RoundTrip(t *testing.T) {
	r := New()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sym, err := r.FrontMonth(domain.ES, asOf)
	require.NoError(t, err)

	exp, err := r.Expiration(sym)
	require.NoError(t, err)
	require.True(t, exp.After(asOf.AddDate(0, 0, rolloverWindowDays)) || exp.Equal(asOf.AddDate(0, 0, rolloverWindowDays+1)))
	require.Equal(t, time.Friday, exp.Weekday())
}

func TestExpiration_UnknownCode(t *testing.T) {
	r := New()
	_, err := r.Expiration(domain.Symbol("/ESQ25"))
	require.Error(t, err)
}
