// Package indicators implements the technical indicator math used by the
// enrichment pass. All functions are pure and total: malformed or short
// input degrades to NaN sentinel values, never to an error or panic.
// ⭐ SSOT: 기술적 지표 계산은 이 패키지에서만
package indicators

import "math"

// EMA calculates the exponential moving average of values.
// Seed is values[0]; k = 2/(period+1). Output length equals input length.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	k := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI calculates the Wilder relative strength index over closes.
// The first period entries are NaN. Seed averages are simple means over the
// first period deltas; later values use Wilder smoothing. When the average
// loss is zero, rs is pinned at 100 (not infinity), giving rsi ≈ 99.0099.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(closes) <= period {
		return out
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	var rs float64
	if avgLoss == 0 {
		rs = 100 // pinned, not infinite
	} else {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}

// ATR calculates the Wilder average true range.
// True range at index 0 is high-low only (no previous close). The seed at
// index period-1 is the simple mean of the first period true ranges; entries
// before the seed are NaN.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// VWAP calculates the cumulative volume-weighted average price.
// Zero cumulative volume yields NaN for that index.
func VWAP(closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if len(volumes) != n {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	var pv, vv float64
	for i := 0; i < n; i++ {
		pv += closes[i] * volumes[i]
		vv += volumes[i]
		if vv == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = pv / vv
		}
	}
	return out
}

// Last returns the last defined (non-NaN) value of a series, or NaN
func Last(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return math.NaN()
}
