package regime

import (
	"testing"
	"time"

	"futuresregime/internal/calibration"
	"futuresregime/internal/domain"
	"github.com/stretchr/testify/require"
)

func esCal(t *testing.T) domain.Calibration {
	t.Helper()
	reg := calibration.NewRegistry()
	cal, err := reg.Get(domain.ES)
	require.NoError(t, err)
	return cal
}

func TestClassify_EventOverride(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{}
	report := c.Classify(f, cal, domain.MidMorning, true, domain.ES, time.Now())

	require.Equal(t, domain.RegimeEventDistorted, report.PrimaryRegime)
	require.GreaterOrEqual(t, report.Confidence, 30)
	require.LessOrEqual(t, report.Confidence, 60)
	require.NotEmpty(t, report.OrderFlowReliabilityNote)
}

func TestClassify_Balanced(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{
		BarOverlapRatio:       domain.Of(0.70),
		PriceVsVWAP:           domain.Of(0.0005),
		DirectionalEfficiency: domain.Of(0.10),
		RVRatio:               domain.Of(0.8),
		VWAPSlope:             domain.Of(1e-6),
		SessionRangeZScore:    domain.Of(0.1),
	}
	report := c.Classify(f, cal, domain.Lunch, false, domain.ES, time.Now())

	require.Equal(t, domain.RegimeBalanced, report.PrimaryRegime)
	require.Equal(t, domain.StateBalanced, report.BalanceState)
	require.Contains(t, []domain.TrendQuality{domain.TrendNone, domain.TrendWeak}, report.TrendQuality)
	require.NotNil(t, report.SecondaryTag)
}

func TestClassify_Trend(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{
		BarOverlapRatio:       domain.Of(0.20),
		DirectionalEfficiency: domain.Of(0.75),
		VWAPSlope:             domain.Of(3e-5),
		ATRSlope:              domain.Of(0.20),
		ATRZScore:             domain.Of(0.5),
	}
	report := c.Classify(f, cal, domain.MidAfternoon, false, domain.NQ, time.Now())

	require.Equal(t, domain.RegimeTrend, report.PrimaryRegime)
	require.Equal(t, domain.StateImbalanced, report.BalanceState)
	require.Contains(t, []domain.TrendQuality{domain.TrendWeak, domain.TrendClean, domain.TrendExtreme}, report.TrendQuality)
}

func TestClassify_Transition(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{
		BarOverlapRatio:       domain.Of(0.50),
		DirectionalEfficiency: domain.Of(0.35),
	}
	report := c.Classify(f, cal, domain.OpeningRange, false, domain.ES, time.Now())

	require.Equal(t, domain.RegimeTransition, report.PrimaryRegime)
	require.Nil(t, report.SecondaryTag)
	require.Equal(t, domain.StateTransitioning, report.BalanceState)
}

func TestClassify_LiquidationSubtype(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{
		BarOverlapRatio:       domain.Of(0.10),
		DirectionalEfficiency: domain.Of(0.90),
		VWAPSlope:             domain.Of(5e-5),
		ATRSlope:              domain.Of(0.30),
		ATRZScore:             domain.Of(2.0),
	}
	report := c.Classify(f, cal, domain.MidAfternoon, false, domain.ES, time.Now())

	require.Equal(t, domain.RegimeTrend, report.PrimaryRegime)
	require.NotNil(t, report.SecondaryTag)
	require.Equal(t, domain.SecondaryLiquidation, *report.SecondaryTag)
}

func TestClassify_ConfidenceAlwaysInRange(t *testing.T) {
	c := New()
	cal := esCal(t)
	f := domain.Features{}
	for _, phase := range []domain.SessionPhase{domain.MidMorning, domain.Lunch, domain.PowerHour} {
		report := c.Classify(f, cal, phase, false, domain.ES, time.Now())
		require.GreaterOrEqual(t, report.Confidence, 0)
		require.LessOrEqual(t, report.Confidence, 100)
	}
}
