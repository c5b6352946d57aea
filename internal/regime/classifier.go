// Package regime classifies a Features record into a RegimeReport given an
// instrument's Calibration and session context.
package regime

import (
	"time"

	"futuresregime/internal/domain"
)

// Classifier consumes Features + Calibration + session context and emits a
// RegimeReport. It holds no state of its own; one instance may classify
// any number of reports concurrently.
type Classifier struct{}

// New constructs a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify runs the full decision pipeline described in the regime
// classifier's component design. eventActive mirrors the optional
// EventWindow collaborator, already resolved to a boolean by the caller.
func (c *Classifier) Classify(f domain.Features, cal domain.Calibration, phase domain.SessionPhase, eventActive bool, instrument domain.Instrument, now time.Time) domain.RegimeReport {
	report := domain.RegimeReport{
		Instrument:   instrument,
		Timestamp:    now,
		SessionPhase: phase,
	}

	if eventActive {
		report.PrimaryRegime = domain.RegimeEventDistorted
		report.Confidence = eventConfidence(f)
		report.VolatilityState = volatilityState(f, cal)
		report.ParticipationState = participationState(f, cal)
		report.BalanceState = domain.StateTransitioning
		report.TrendQuality = domain.TrendNone
		report.NoiseLevel = noiseLevel(f)
		report.OrderFlowReliabilityNote = note(domain.RegimeEventDistorted, nil, phase)
		return report
	}

	balanceScore, imbalanceScore := balanceImbalanceScores(f, cal)
	primary := classifyPrimary(balanceScore, imbalanceScore)
	secondary := secondaryTag(primary, f, cal)

	report.PrimaryRegime = primary
	report.SecondaryTag = secondary
	report.VolatilityState = volatilityState(f, cal)
	report.ParticipationState = participationState(f, cal)
	report.BalanceState = balanceState(primary)
	report.TrendQuality = trendQuality(primary, f, cal)
	report.NoiseLevel = noiseLevel(f)
	report.Confidence = confidence(primary, balanceScore, imbalanceScore, f, report.VolatilityState, report.ParticipationState)
	report.OrderFlowReliabilityNote = note(primary, secondary, phase)

	return report
}

// balanceImbalanceScores implements Step 2.
func balanceImbalanceScores(f domain.Features, cal domain.Calibration) (balance, imbalance int) {
	if v, ok := f.BarOverlapRatio.Get(); ok && v >= cal.BalanceOverlapThreshold {
		balance++
	}
	if v, ok := f.PriceVsVWAP.Get(); ok && absf(v) <= 0.002 {
		balance++
	}
	if v, ok := f.DirectionalEfficiency.Get(); ok && absf(v) <= 0.30 {
		balance++
	}
	if v, ok := f.RVRatio.Get(); ok && v < 1.0 {
		balance++
	}

	if v, ok := f.DirectionalEfficiency.Get(); ok && absf(v) >= cal.ImbalanceEfficiencyThreshold {
		imbalance++
	}
	if v, ok := f.VWAPSlope.Get(); ok && absf(v) >= cal.VWAPSlopeStrong {
		imbalance++
	}
	if v, ok := f.BarOverlapRatio.Get(); ok && v < 0.40 {
		imbalance++
	}
	if v, ok := f.ATRSlope.Get(); ok && v >= cal.ATRExpandingSlope {
		imbalance++
	}
	return balance, imbalance
}

// classifyPrimary implements Step 3.
func classifyPrimary(balance, imbalance int) domain.PrimaryRegime {
	switch {
	case imbalance-balance >= 2:
		return domain.RegimeTrend
	case balance-imbalance >= 2:
		return domain.RegimeBalanced
	default:
		return domain.RegimeTransition
	}
}

// secondaryTag implements Step 4.
func secondaryTag(primary domain.PrimaryRegime, f domain.Features, cal domain.Calibration) *domain.SecondaryTag {
	switch primary {
	case domain.RegimeBalanced:
		if z, ok := f.SessionRangeZScore.Get(); ok && z <= -1.0 {
			return tagPtr(domain.SecondaryTight)
		}
		if s, ok := f.VWAPSlope.Get(); ok && absf(s) >= cal.VWAPSlopeStrong*0.5 {
			return tagPtr(domain.SecondaryMigrating)
		}
		return tagPtr(domain.SecondaryNormal)
	case domain.RegimeTrend:
		eff, effOK := f.DirectionalEfficiency.Get()
		atrZ, atrZOK := f.ATRZScore.Get()
		if effOK && atrZOK && absf(eff) >= cal.TrendQualityExtremeEff && atrZ >= cal.TrendQualityExtremeATRZ {
			return tagPtr(domain.SecondaryLiquidation)
		}
		if effOK && absf(eff) >= cal.TrendQualityClean {
			return tagPtr(domain.SecondaryClean)
		}
		return tagPtr(domain.SecondaryGrinding)
	default:
		return nil
	}
}

// volatilityState implements Step 5.
func volatilityState(f domain.Features, cal domain.Calibration) domain.VolatilityState {
	if z, ok := f.ATRZScore.Get(); ok && z >= cal.ATRExtremeZScore {
		return domain.VolExtreme
	}
	atrSlope, atrOK := f.ATRSlope.Get()
	rvRatio, rvOK := f.RVRatio.Get()
	if atrOK && rvOK && atrSlope >= cal.ATRExpandingSlope && rvRatio >= cal.RVRatioExpanding {
		return domain.VolExpanding
	}
	if atrOK && rvOK && atrSlope <= cal.ATRCompressingSlope && rvRatio < 1.0 {
		return domain.VolCompressing
	}
	return domain.VolNormal
}

// participationState implements Step 6.
func participationState(f domain.Features, cal domain.Calibration) domain.ParticipationState {
	v, ok := f.VolumeVsExpected.Get()
	if !ok {
		return domain.ParticipationNormal
	}
	if v >= cal.ParticipationHeavy {
		return domain.ParticipationHeavy
	}
	if v <= cal.ParticipationThin {
		return domain.ParticipationThin
	}
	return domain.ParticipationNormal
}

// balanceState implements Step 7.
func balanceState(primary domain.PrimaryRegime) domain.BalanceState {
	switch primary {
	case domain.RegimeTrend:
		return domain.StateImbalanced
	case domain.RegimeBalanced:
		return domain.StateBalanced
	default:
		return domain.StateTransitioning
	}
}

// trendQuality implements Step 8.
func trendQuality(primary domain.PrimaryRegime, f domain.Features, cal domain.Calibration) domain.TrendQuality {
	if primary == domain.RegimeBalanced {
		return domain.TrendNone
	}
	eff, effOK := f.DirectionalEfficiency.Get()
	if !effOK {
		return domain.TrendWeak
	}
	atrZ, atrZOK := f.ATRZScore.Get()
	if atrZOK && absf(eff) >= cal.TrendQualityExtremeEff && atrZ >= cal.TrendQualityExtremeATRZ {
		return domain.TrendExtreme
	}
	if absf(eff) >= cal.TrendQualityClean {
		return domain.TrendClean
	}
	return domain.TrendWeak
}

// noiseLevel implements Step 9.
func noiseLevel(f domain.Features) domain.NoiseLevel {
	overlap, overlapOK := f.BarOverlapRatio.Get()
	atrSlope, atrOK := f.ATRSlope.Get()
	rvRatio, rvOK := f.RVRatio.Get()

	if overlapOK && atrOK && overlap < 0.40 && atrSlope > 0 {
		return domain.NoiseLow
	}
	if (overlapOK && overlap > 0.65) || (rvOK && absf(rvRatio-1) > 0.5) {
		return domain.NoiseHigh
	}
	return domain.NoiseMedium
}

const (
	requiredMargin  = 2
	maxScoreBonus   = 30
	maxMissingPenalty = 30
)

// confidence implements Step 10.
func confidence(primary domain.PrimaryRegime, balance, imbalance int, f domain.Features, vol domain.VolatilityState, part domain.ParticipationState) int {
	score := 50

	margin := imbalance - balance
	if primary == domain.RegimeBalanced {
		margin = balance - imbalance
	}
	if primary != domain.RegimeTransition {
		extra := margin - requiredMargin
		if extra > 0 {
			bonus := extra * 10
			if bonus > maxScoreBonus {
				bonus = maxScoreBonus
			}
			score += bonus
		}
	}

	missing := countMissingContributors(f)
	penalty := missing * 10
	if penalty > maxMissingPenalty {
		penalty = maxMissingPenalty
	}
	score -= penalty

	if primary == domain.RegimeTransition {
		score -= 15
	}

	if vol == domain.VolNormal && part == domain.ParticipationNormal {
		score += 5
	}

	return clamp(score, 0, 100)
}

// countMissingContributors counts how many of the eight Step 2 boolean
// conditions' underlying metrics were absent.
func countMissingContributors(f domain.Features) int {
	contributors := []domain.Metric{
		f.BarOverlapRatio, f.PriceVsVWAP, f.DirectionalEfficiency, f.RVRatio,
		f.DirectionalEfficiency, f.VWAPSlope, f.BarOverlapRatio, f.ATRSlope,
	}
	n := 0
	for _, m := range contributors {
		if !m.Present {
			n++
		}
	}
	return n
}

// eventConfidence implements the Step 1 event-override confidence rule:
// clamped to [30, 60], nudged within that band by how distorted the
// available features already look.
func eventConfidence(f domain.Features) int {
	base := 45
	if z, ok := f.ATRZScore.Get(); ok && z >= 2.0 {
		base -= 10
	}
	if overlap, ok := f.BarOverlapRatio.Get(); ok && overlap > 0.65 {
		base += 10
	}
	return clamp(base, 30, 60)
}

func tagPtr(t domain.SecondaryTag) *domain.SecondaryTag {
	return &t
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
