package domain

import "strconv"

// Metric is an optionally-present floating point feature value. A Features
// field is Metric{} (zero value, Present == false) whenever the underlying
// calculation lacked the history it required; the classifier treats an
// absent Metric as "does not contribute to its score" rather than as zero.
type Metric struct {
	Value   float64
	Present bool
}

// Missing is the absent Metric value.
var Missing = Metric{}

// Of constructs a present Metric wrapping v.
func Of(v float64) Metric {
	return Metric{Value: v, Present: true}
}

// Get returns the wrapped value and whether it was present, mirroring the
// comma-ok idiom used elsewhere for optional lookups.
func (m Metric) Get() (float64, bool) {
	return m.Value, m.Present
}

// MarshalJSON renders an absent Metric as JSON null and a present one as
// its numeric value.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Present {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(m.Value, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts either a JSON number or null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Missing
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Of(v)
	return nil
}
