package regime

import "futuresregime/internal/domain"

// baseNotes holds one entry per (primary_regime, secondary_tag) pair named
// in the regime classifier's component design. The two primaries that carry
// no secondary tag (Transition and Event-Distorted) use the constants below.
var baseNotes = map[domain.PrimaryRegime]map[domain.SecondaryTag]string{
	domain.RegimeBalanced: {
		domain.SecondaryTight:     "Range contraction; breakout risk rising, direction unresolved.",
		domain.SecondaryMigrating: "Balance drifting with VWAP; watch for range translation.",
		domain.SecondaryNormal:    "Reliable only at range extremes; unreliable mid-range.",
	},
	domain.RegimeTrend: {
		domain.SecondaryClean:       "Continuation signals favored; fading less reliable.",
		domain.SecondaryGrinding:    "Trend intact but low-efficiency; expect chop within the move.",
		domain.SecondaryLiquidation: "Exhaustion-prone; trail risk tightly, avoid fresh entries.",
	},
}

const (
	transitionNote = "Signals unreliable until acceptance or failure."
	eventNote      = "All microstructure warped; interpretation degraded."
)

// sessionSuffixes appends session-aware elaboration to the base note for
// the three phases where order flow reliability is known to degrade
// independent of the regime itself.
var sessionSuffixes = map[domain.SessionPhase]string{
	domain.Lunch:        " Lunch-hour liquidity thin; discount signal strength.",
	domain.OpeningRange: " Opening range still forming; treat as provisional.",
	domain.PowerHour:    " Power-hour positioning flows may exaggerate the read.",
}

// note resolves the reliability note for a classification result.
func note(primary domain.PrimaryRegime, secondary *domain.SecondaryTag, phase domain.SessionPhase) string {
	var base string
	switch primary {
	case domain.RegimeTransition:
		base = transitionNote
	case domain.RegimeEventDistorted:
		base = eventNote
	default:
		if secondary == nil {
			base = ""
		} else if byTag, ok := baseNotes[primary]; ok {
			base = byTag[*secondary]
		}
	}
	return base + sessionSuffixes[phase]
}
