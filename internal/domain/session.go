package domain

// SessionPhase is a named segment of the America/Chicago regular session,
// or extended hours.
type SessionPhase string

const (
	PreOpen       SessionPhase = "pre_open"
	OpeningRange  SessionPhase = "opening_range"
	MidMorning    SessionPhase = "mid_morning"
	Lunch         SessionPhase = "lunch"
	MidAfternoon  SessionPhase = "mid_afternoon"
	PowerHour     SessionPhase = "power_hour"
	Close         SessionPhase = "close"
	Extended      SessionPhase = "extended"
)

// IsRegularSession reports whether p falls within the regular trading
// session (opening_range through power_hour).
func (p SessionPhase) IsRegularSession() bool {
	switch p {
	case OpeningRange, MidMorning, Lunch, MidAfternoon, PowerHour:
		return true
	default:
		return false
	}
}
