// Package features computes the fixed-shape statistical feature record the
// regime classifier consumes, from recent 1-minute and 5-minute candle
// series.
package features

import (
	"fmt"
	"math"
	"time"

	"futuresregime/internal/domain"
	"futuresregime/internal/session"
)

const (
	minOneMinBars  = 60
	minFiveMinBars = 20

	atrPeriod        = 14
	vwapSlopeWindow  = 30
	rvShortWindow    = 20
	rvLongWindow     = 100
	rvLongMinimum    = 40
	overlapWindow    = 24
	efficiencyWindow = 60
	rangePerVolWin   = 12
	atrZScoreWindow  = 200
	sessionRangeDays = 20
)

// Calculator computes Features from candle history.
type Calculator struct{}

// New constructs a Calculator.
func New() *Calculator {
	return &Calculator{}
}

// Calculate produces a Features record. now is the wall-clock instant the
// classification is anchored to; priorSessionRanges holds the session_range
// of up to the prior 20 regular sessions, oldest first, used for
// session_range_zscore.
func (c *Calculator) Calculate(oneMin, fiveMin domain.CandleSeries, cal domain.Calibration, now time.Time, priorSessionRanges []float64) (domain.Features, error) {
	if err := oneMin.Validate(); err != nil {
		return domain.Features{}, err
	}
	if err := fiveMin.Validate(); err != nil {
		return domain.Features{}, err
	}
	if len(oneMin.Bars) < minOneMinBars {
		return domain.Features{}, fmt.Errorf("%w: %d one-minute bars, need %d", domain.ErrInsufficientData, len(oneMin.Bars), minOneMinBars)
	}
	if len(fiveMin.Bars) < minFiveMinBars {
		return domain.Features{}, fmt.Errorf("%w: %d five-minute bars, need %d", domain.ErrInsufficientData, len(fiveMin.Bars), minFiveMinBars)
	}

	var f domain.Features

	sessionBars1m := regularSessionBars(oneMin.Bars, now)

	vwapSeries := vwapRunningSeries(sessionBars1m)
	vwap, vwapOK := lastOf(vwapSeries)
	if vwapOK {
		f.VWAP = domain.Of(vwap)
	}

	if vwapOK {
		if slope, ok := lastNSlope(vwapSeries, vwapSlopeWindow); ok && vwap != 0 {
			f.VWAPSlope = domain.Of(slope / vwap)
		}
		lastClose := oneMin.Bars[len(oneMin.Bars)-1].Close
		if vwap != 0 {
			f.PriceVsVWAP = domain.Of((lastClose - vwap) / vwap)
		}
	}

	atrSeries := wilderATRSeries(fiveMin.Bars, atrPeriod)
	if len(atrSeries) > 0 {
		f.ATR14_5m = domain.Of(atrSeries[len(atrSeries)-1])
	}
	if slope, ok := atrSlope(atrSeries, 10); ok {
		f.ATRSlope = domain.Of(slope)
	}
	if z, ok := rollingZScore(atrSeries, atrZScoreWindow); ok {
		f.ATRZScore = domain.Of(z)
	}

	if rv, ok := realizedVol(fiveMin.Bars, rvShortWindow); ok {
		f.RealizedVolShort = domain.Of(rv)
	}
	longWindow := rvLongWindow
	if len(fiveMin.Bars)-1 < longWindow {
		longWindow = len(fiveMin.Bars) - 1
	}
	if longWindow >= rvLongMinimum {
		if rv, ok := realizedVol(fiveMin.Bars, longWindow); ok {
			f.RealizedVolLong = domain.Of(rv)
		}
	}
	if sv, svOK := f.RealizedVolShort.Get(); svOK {
		if lv, lvOK := f.RealizedVolLong.Get(); lvOK && lv != 0 {
			f.RVRatio = domain.Of(sv / lv)
		}
	}

	if overlap, ok := barOverlapRatio(fiveMin.Bars, overlapWindow); ok {
		f.BarOverlapRatio = domain.Of(overlap)
	}

	effWindow := lastN(oneMin.Bars, efficiencyWindow)
	if eff, ok := directionalEfficiency(effWindow); ok {
		f.DirectionalEfficiency = domain.Of(eff)
	}
	atrForPullback, _ := lastOf(atrSeries)
	if depth, ok := avgPullbackDepth(effWindow, atrForPullback); ok {
		f.AvgPullbackDepth = domain.Of(depth)
	}

	if rng, ok := sessionRange(sessionBars1m); ok {
		f.SessionRange = domain.Of(rng)
		if z, ok := historicalZScore(rng, priorSessionRanges); ok {
			f.SessionRangeZScore = domain.Of(z)
		}
	}

	phase := session.Phase(now)
	if orPos, orSide, ok := openingRangePosition(sessionBars1m, phase, oneMin.Bars[len(oneMin.Bars)-1].Close); ok {
		f.OpeningRangePosition = domain.Of(orPos)
		f.OpeningRangeSide = orSide
	}

	minutesSinceOpen := session.MinutesSinceOpen(now)
	cumVol := cumulativeVolume(sessionBars1m)
	expVol := cal.ExpectedVolumeAt(minutesSinceOpen)
	f.CumulativeVolume = cumVol
	f.ExpectedVolume = expVol
	if expVol > 0 {
		f.VolumeVsExpected = domain.Of(float64(cumVol) / float64(expVol))
	}

	if accel, ok := volumeAcceleration(oneMin.Bars); ok {
		f.VolumeAcceleration = domain.Of(accel)
	}

	if rpv, ok := rangePerVolume(fiveMin.Bars, rangePerVolWin); ok {
		f.RangePerVolume = domain.Of(rpv)
	}

	return f, nil
}

func lastN(bars []domain.Candle, n int) []domain.Candle {
	if n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}

func lastOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return xs[len(xs)-1], true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// linregressSlope fits y = a + b*x over equally spaced x = 0..n-1 and
// returns b via ordinary least squares.
func linregressSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (nf*sumXY - sumX*sumY) / denom
}

func lastNSlope(ys []float64, window int) (float64, bool) {
	if len(ys) < 2 {
		return 0, false
	}
	w := window
	if w > len(ys) {
		w = len(ys)
	}
	tail := ys[len(ys)-w:]
	return linregressSlope(tail), true
}

// regularSessionBars filters 1-minute bars to those within the regular
// session, anchored at 08:30 CT on now's local calendar date, up to now.
func regularSessionBars(bars []domain.Candle, now time.Time) []domain.Candle {
	open := session.OpenOnDate(now)
	out := make([]domain.Candle, 0, len(bars))
	for _, b := range bars {
		if !b.Timestamp.Before(open) && !b.Timestamp.After(now) {
			out = append(out, b)
		}
	}
	return out
}

// vwapRunningSeries returns the running session-to-date VWAP after each bar.
func vwapRunningSeries(bars []domain.Candle) []float64 {
	out := make([]float64, 0, len(bars))
	var cumPV, cumVol float64
	for _, b := range bars {
		cumPV += b.TypicalPrice() * float64(b.Volume)
		cumVol += float64(b.Volume)
		if cumVol == 0 {
			continue
		}
		out = append(out, cumPV/cumVol)
	}
	return out
}

// wilderATRSeries returns the Wilder-smoothed ATR value after each bar once
// at least period+1 bars are available. The first value is the simple mean
// of the first `period` true ranges.
func wilderATRSeries(bars []domain.Candle, period int) []float64 {
	if len(bars) < period+1 {
		return nil
	}
	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, bars[i].TrueRange(bars[i-1].Close))
	}
	if len(trs) < period {
		return nil
	}
	out := make([]float64, 0, len(trs)-period+1)
	atr := mean(trs[:period])
	out = append(out, atr)
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		out = append(out, atr)
	}
	return out
}

func atrSlope(atrSeries []float64, lag int) (float64, bool) {
	if len(atrSeries) <= lag {
		return 0, false
	}
	current := atrSeries[len(atrSeries)-1]
	earlier := atrSeries[len(atrSeries)-1-lag]
	if earlier == 0 {
		return 0, false
	}
	return (current - earlier) / earlier, true
}

func rollingZScore(series []float64, window int) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	w := window
	if w > len(series) {
		w = len(series)
	}
	tail := series[len(series)-w:]
	sd := stdev(tail)
	if sd == 0 {
		return 0, false
	}
	current := series[len(series)-1]
	return (current - mean(tail)) / sd, true
}

func realizedVol(bars []domain.Candle, window int) (float64, bool) {
	if len(bars) < window+1 {
		return 0, false
	}
	tail := bars[len(bars)-window-1:]
	returns := make([]float64, 0, window)
	for i := 1; i < len(tail); i++ {
		prev, cur := tail[i-1].Close, tail[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 2 {
		return 0, false
	}
	return stdev(returns), true
}

func barOverlapRatio(bars []domain.Candle, window int) (float64, bool) {
	w := window
	if w > len(bars)-1 {
		w = len(bars) - 1
	}
	if w < 1 {
		return 0, false
	}
	tail := bars[len(bars)-w-1:]
	var sum float64
	var count int
	for i := 1; i < len(tail); i++ {
		a, b := tail[i-1], tail[i]
		overlapLow := math.Max(a.Low, b.Low)
		overlapHigh := math.Min(a.High, b.High)
		overlap := math.Max(0, overlapHigh-overlapLow)
		unionLow := math.Min(a.Low, b.Low)
		unionHigh := math.Max(a.High, b.High)
		union := unionHigh - unionLow
		if union <= 0 {
			continue
		}
		sum += overlap / union
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func directionalEfficiency(bars []domain.Candle) (float64, bool) {
	if len(bars) < 2 {
		return 0, false
	}
	net := bars[len(bars)-1].Close - bars[0].Close
	var total float64
	for i := 1; i < len(bars); i++ {
		total += math.Abs(bars[i].Close - bars[i-1].Close)
	}
	if total == 0 {
		return 0, false
	}
	return net / total, true
}

// avgPullbackDepth finds local extrema in bars (a bar beating both
// neighbors by at least 0.1*atr) and reports the mean retracement depth of
// pullbacks as a fraction of total directional travel.
func avgPullbackDepth(bars []domain.Candle, atr float64) (float64, bool) {
	if len(bars) < 3 || atr <= 0 {
		return 0, false
	}
	threshold := 0.1 * atr
	var extremaIdx []int
	for i := 1; i < len(bars)-1; i++ {
		c := bars[i].Close
		if c > bars[i-1].Close+threshold && c > bars[i+1].Close+threshold {
			extremaIdx = append(extremaIdx, i)
		} else if c < bars[i-1].Close-threshold && c < bars[i+1].Close-threshold {
			extremaIdx = append(extremaIdx, i)
		}
	}
	if len(extremaIdx) < 2 {
		return 0, false
	}
	totalTravel := 0.0
	for i := 1; i < len(bars); i++ {
		totalTravel += math.Abs(bars[i].Close - bars[i-1].Close)
	}
	if totalTravel == 0 {
		return 0, false
	}
	var depths []float64
	for k := 1; k < len(extremaIdx); k++ {
		prev := bars[extremaIdx[k-1]].Close
		cur := bars[extremaIdx[k]].Close
		depths = append(depths, math.Abs(cur-prev)/totalTravel)
	}
	if len(depths) == 0 {
		return 0, false
	}
	return mean(depths), true
}

func sessionRange(sessionBars []domain.Candle) (float64, bool) {
	if len(sessionBars) == 0 {
		return 0, false
	}
	hi, lo := sessionBars[0].High, sessionBars[0].Low
	for _, b := range sessionBars[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	return hi - lo, true
}

func historicalZScore(current float64, priors []float64) (float64, bool) {
	w := priors
	if len(w) > sessionRangeDays {
		w = w[len(w)-sessionRangeDays:]
	}
	if len(w) < 2 {
		return 0, false
	}
	sd := stdev(w)
	if sd == 0 {
		return 0, false
	}
	return (current - mean(w)) / sd, true
}

// openingRangePosition locates the 08:30-09:00 CT high/low within
// sessionBars and positions the latest close within it.
func openingRangePosition(sessionBars []domain.Candle, phase domain.SessionPhase, lastClose float64) (float64, domain.OpeningRangeSide, bool) {
	if phase == domain.PreOpen || phase == domain.Extended {
		return 0, domain.ORUnknown, false
	}
	var orHigh, orLow float64
	found := false
	for _, b := range sessionBars {
		local := b.Timestamp.In(session.Central)
		minutes := local.Hour()*60 + local.Minute()
		if minutes < 8*60+30 || minutes >= 9*60 {
			continue
		}
		if !found {
			orHigh, orLow = b.High, b.Low
			found = true
			continue
		}
		if b.High > orHigh {
			orHigh = b.High
		}
		if b.Low < orLow {
			orLow = b.Low
		}
	}
	if !found || orHigh == orLow {
		return 0, domain.ORUnknown, false
	}
	pos := (lastClose - orLow) / (orHigh - orLow)
	side := domain.ORInside
	if lastClose > orHigh {
		side = domain.ORAboveHigh
	} else if lastClose < orLow {
		side = domain.ORBelowLow
	}
	return math.Min(1, math.Max(0, pos)), side, true
}

func cumulativeVolume(bars []domain.Candle) int64 {
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum
}

func volumeAcceleration(bars []domain.Candle) (float64, bool) {
	if len(bars) < 20 {
		return 0, false
	}
	tail := bars[len(bars)-20:]
	var prior, last int64
	for _, b := range tail[:10] {
		prior += b.Volume
	}
	for _, b := range tail[10:] {
		last += b.Volume
	}
	if prior == 0 {
		return 0, false
	}
	return float64(last)/float64(prior) - 1, true
}

func rangePerVolume(bars []domain.Candle, window int) (float64, bool) {
	w := window
	if w > len(bars) {
		w = len(bars)
	}
	if w == 0 {
		return 0, false
	}
	tail := bars[len(bars)-w:]
	var ratios []float64
	for _, b := range tail {
		if b.Volume <= 0 {
			continue
		}
		ratios = append(ratios, (b.High-b.Low)/float64(b.Volume))
	}
	if len(ratios) == 0 {
		return 0, false
	}
	return mean(ratios), true
}
