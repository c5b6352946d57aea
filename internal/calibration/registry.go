// Package calibration holds the immutable per-instrument threshold records
// the classifier consults, with ES and NQ defaults grounded in the
// system's production intent and an optional YAML override layer for
// operators retuning thresholds without a rebuild.
package calibration

import (
	"fmt"
	"os"

	"futuresregime/internal/domain"
	"gopkg.in/yaml.v3"
)

// esVolumeCurve and nqVolumeCurve are expressed as fractions of full
// regular-session expected volume, re-derived from the 15-minute absolute
// buckets tabulated against historical session data.
var esVolumeCurve = []domain.VolumeCurvePoint{
	{MinutesSinceOpen: 0, ExpectedFraction: 0.00},
	{MinutesSinceOpen: 15, ExpectedFraction: 0.06},
	{MinutesSinceOpen: 30, ExpectedFraction: 0.11},
	{MinutesSinceOpen: 60, ExpectedFraction: 0.20},
	{MinutesSinceOpen: 120, ExpectedFraction: 0.35},
	{MinutesSinceOpen: 180, ExpectedFraction: 0.47},
	{MinutesSinceOpen: 240, ExpectedFraction: 0.56}, // lunch trough
	{MinutesSinceOpen: 300, ExpectedFraction: 0.62},
	{MinutesSinceOpen: 360, ExpectedFraction: 0.72},
	{MinutesSinceOpen: 420, ExpectedFraction: 0.88}, // power hour
	{MinutesSinceOpen: 450, ExpectedFraction: 1.00},
}

var nqVolumeCurve = []domain.VolumeCurvePoint{
	{MinutesSinceOpen: 0, ExpectedFraction: 0.00},
	{MinutesSinceOpen: 15, ExpectedFraction: 0.07},
	{MinutesSinceOpen: 30, ExpectedFraction: 0.13},
	{MinutesSinceOpen: 60, ExpectedFraction: 0.22},
	{MinutesSinceOpen: 120, ExpectedFraction: 0.37},
	{MinutesSinceOpen: 180, ExpectedFraction: 0.48},
	{MinutesSinceOpen: 240, ExpectedFraction: 0.57},
	{MinutesSinceOpen: 300, ExpectedFraction: 0.63},
	{MinutesSinceOpen: 360, ExpectedFraction: 0.73},
	{MinutesSinceOpen: 420, ExpectedFraction: 0.89},
	{MinutesSinceOpen: 450, ExpectedFraction: 1.00},
}

// Knobs below are grounded on the original CalibrationParams dataclass
// (overlap_balanced_high, atr_extreme_zscore, volatility_expanding,
// volume_heavy_threshold, volume_thin_threshold, efficiency_trend_clean)
// where that dataclass has a matching field. The original's scoring system
// has no slope-based ATR knob, no efficiency-based imbalance threshold, and
// no separate "extreme" trend tier, so VWAPSlopeStrong, ATRExpandingSlope,
// ATRCompressingSlope, ImbalanceEfficiencyThreshold, and the
// TrendQualityExtreme* pair have no counterpart there and keep their
// illustrative shape values.
var defaults = map[domain.Instrument]domain.Calibration{
	domain.ES: {
		Instrument:                   domain.ES,
		BalanceOverlapThreshold:      0.60,
		ImbalanceEfficiencyThreshold: 0.45,
		VWAPSlopeStrong:              1.5e-5,
		ATRExpandingSlope:            0.10,
		ATRCompressingSlope:          -0.10,
		ATRExtremeZScore:             2.5,
		RVRatioExpanding:             1.2,
		ParticipationHeavy:           1.3,
		ParticipationThin:            0.7,
		TrendQualityClean:            0.70,
		TrendQualityExtremeEff:       0.80,
		TrendQualityExtremeATRZ:      1.5,
		FullSessionExpectedVolume:    1_889_000,
		ExpectedVolumeCurve:          esVolumeCurve,
	},
	domain.NQ: {
		Instrument:                   domain.NQ,
		BalanceOverlapThreshold:      0.65,
		ImbalanceEfficiencyThreshold: 0.55,
		VWAPSlopeStrong:              2.2e-5,
		ATRExpandingSlope:            0.10,
		ATRCompressingSlope:          -0.10,
		ATRExtremeZScore:             2.5,
		RVRatioExpanding:             1.2,
		ParticipationHeavy:           1.3,
		ParticipationThin:            0.7,
		TrendQualityClean:            0.75,
		TrendQualityExtremeEff:       0.85,
		TrendQualityExtremeATRZ:      1.5,
		FullSessionExpectedVolume:    2_295_000,
		ExpectedVolumeCurve:          nqVolumeCurve,
	},
}

// Registry resolves a Calibration for an instrument, falling back to the
// built-in defaults for any knob an override file does not set.
type Registry struct {
	calibrations map[domain.Instrument]domain.Calibration
}

// NewRegistry constructs a Registry seeded with the ES and NQ defaults.
func NewRegistry() *Registry {
	reg := &Registry{calibrations: make(map[domain.Instrument]domain.Calibration, len(defaults))}
	for k, v := range defaults {
		reg.calibrations[k] = v
	}
	return reg
}

// Get returns the Calibration for instrument.
func (r *Registry) Get(instrument domain.Instrument) (domain.Calibration, error) {
	cal, ok := r.calibrations[instrument]
	if !ok {
		return domain.Calibration{}, fmt.Errorf("%w: %q", domain.ErrInvalidInstrument, instrument)
	}
	return cal, nil
}

// override mirrors the subset of Calibration an operator may want to tune
// from a YAML file without touching the other knobs.
type override struct {
	BalanceOverlapThreshold      *float64 `yaml:"balance_overlap_threshold"`
	ImbalanceEfficiencyThreshold *float64 `yaml:"imbalance_efficiency_threshold"`
	VWAPSlopeStrong              *float64 `yaml:"vwap_slope_strong"`
	ATRExpandingSlope            *float64 `yaml:"atr_expanding_slope"`
	ATRCompressingSlope          *float64 `yaml:"atr_compressing_slope"`
	ATRExtremeZScore             *float64 `yaml:"atr_extreme_zscore"`
	RVRatioExpanding             *float64 `yaml:"rv_ratio_expanding"`
	ParticipationHeavy           *float64 `yaml:"participation_heavy"`
	ParticipationThin            *float64 `yaml:"participation_thin"`
	TrendQualityClean            *float64 `yaml:"trend_quality_clean"`
	FullSessionExpectedVolume    *int64   `yaml:"full_session_expected_volume"`
}

type overrideFile struct {
	ES *override `yaml:"ES"`
	NQ *override `yaml:"NQ"`
}

// LoadOverrides layers a YAML override file on top of the built-in
// defaults. A missing path is not an error; callers pass "" to skip it.
func (r *Registry) LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("calibration: read override file: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("calibration: parse override file: %w", err)
	}
	applyOverride(r.calibrations, domain.ES, f.ES)
	applyOverride(r.calibrations, domain.NQ, f.NQ)
	return nil
}

func applyOverride(calibrations map[domain.Instrument]domain.Calibration, instrument domain.Instrument, o *override) {
	if o == nil {
		return
	}
	cal := calibrations[instrument]
	if o.BalanceOverlapThreshold != nil {
		cal.BalanceOverlapThreshold = *o.BalanceOverlapThreshold
	}
	if o.ImbalanceEfficiencyThreshold != nil {
		cal.ImbalanceEfficiencyThreshold = *o.ImbalanceEfficiencyThreshold
	}
	if o.VWAPSlopeStrong != nil {
		cal.VWAPSlopeStrong = *o.VWAPSlopeStrong
	}
	if o.ATRExpandingSlope != nil {
		cal.ATRExpandingSlope = *o.ATRExpandingSlope
	}
	if o.ATRCompressingSlope != nil {
		cal.ATRCompressingSlope = *o.ATRCompressingSlope
	}
	if o.ATRExtremeZScore != nil {
		cal.ATRExtremeZScore = *o.ATRExtremeZScore
	}
	if o.RVRatioExpanding != nil {
		cal.RVRatioExpanding = *o.RVRatioExpanding
	}
	if o.ParticipationHeavy != nil {
		cal.ParticipationHeavy = *o.ParticipationHeavy
	}
	if o.ParticipationThin != nil {
		cal.ParticipationThin = *o.ParticipationThin
	}
	if o.TrendQualityClean != nil {
		cal.TrendQualityClean = *o.TrendQualityClean
	}
	if o.FullSessionExpectedVolume != nil {
		cal.FullSessionExpectedVolume = *o.FullSessionExpectedVolume
	}
	calibrations[instrument] = cal
}
