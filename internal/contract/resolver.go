// Package contract resolves the front-month futures symbol for an
// instrument at a given instant, applying the quarterly rollover rule.
package contract

import (
	"fmt"
	"time"

	"futuresregime/internal/domain"
)

const rolloverWindowDays = 10

var quarterlyMonths = []time.Month{time.March, time.June, time.September, time.December}

var monthCodes = map[time.Month]string{
	time.March:     "H",
	time.June:      "M",
	time.September: "U",
	time.December:  "Z",
}

var codeMonths = map[string]time.Month{
	"H": time.March,
	"M": time.June,
	"U": time.September,
	"Z": time.December,
}

// Resolver computes front-month symbols and can reverse-parse them back to
// an expiration date.
type Resolver struct{}

// New constructs a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// FrontMonth returns the front-month contract symbol for instrument at t,
// e.g. "/ESH25".
func (r *Resolver) FrontMonth(instrument domain.Instrument, t time.Time) (domain.Symbol, error) {
	if !instrument.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidInstrument, instrument)
	}
	month, year := nextQuarterlyMonth(t)
	expiration := thirdFriday(month, year)

	if shouldRollEarly(t, expiration) {
		month, year = advanceQuarter(month, year)
	}

	code := monthCodes[month]
	return domain.Symbol(fmt.Sprintf("/%s%s%02d", instrument, code, year%100)), nil
}

// Expiration reverse-parses a front-month symbol produced by FrontMonth
// back into its third-Friday expiration date at 00:00 UTC.
func (r *Resolver) Expiration(symbol domain.Symbol) (time.Time, error) {
	s := string(symbol)
	if len(s) < 4 || s[0] != '/' {
		return time.Time{}, fmt.Errorf("contract: malformed symbol %q", s)
	}
	body := s[1:]
	if len(body) < 3 {
		return time.Time{}, fmt.Errorf("contract: malformed symbol %q", s)
	}
	yearDigits := body[len(body)-2:]
	code := body[len(body)-3 : len(body)-2]
	root := body[:len(body)-3]
	if _, err := domain.ParseInstrument(root); err != nil {
		return time.Time{}, err
	}
	month, ok := codeMonths[code]
	if !ok {
		return time.Time{}, fmt.Errorf("contract: unknown month code %q in %q", code, s)
	}
	var yy int
	if _, err := fmt.Sscanf(yearDigits, "%02d", &yy); err != nil {
		return time.Time{}, fmt.Errorf("contract: malformed year in %q", s)
	}
	year := 2000 + yy
	return thirdFriday(month, year), nil
}

// nextQuarterlyMonth returns the current quarter's contract month/year for
// instant t: the earliest quarterly month whose expiration has not yet
// passed as of t's calendar date.
func nextQuarterlyMonth(t time.Time) (time.Month, int) {
	year := t.Year()
	for _, m := range quarterlyMonths {
		exp := thirdFriday(m, year)
		if !exp.Before(truncateToDay(t)) {
			return m, year
		}
	}
	return quarterlyMonths[0], year + 1
}

func advanceQuarter(month time.Month, year int) (time.Month, int) {
	for i, m := range quarterlyMonths {
		if m == month {
			if i == len(quarterlyMonths)-1 {
				return quarterlyMonths[0], year + 1
			}
			return quarterlyMonths[i+1], year
		}
	}
	return month, year
}

func shouldRollEarly(t, expiration time.Time) bool {
	diff := expiration.Sub(truncateToDay(t)).Hours() / 24
	return diff >= -float64(rolloverWindowDays) && diff <= float64(rolloverWindowDays)
}

// thirdFriday returns the third Friday of month/year at 00:00 UTC.
func thirdFriday(month time.Month, year int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	firstFriday := first.AddDate(0, 0, offset)
	return firstFriday.AddDate(0, 0, 14)
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
