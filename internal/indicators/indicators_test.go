package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA_OutputLength(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
	}{
		{"empty input", []float64{}, 14},
		{"single value", []float64{10}, 14},
		{"shorter than period", []float64{10, 11, 12}, 14},
		{"longer than period", []float64{10, 11, 12, 13, 14, 15}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EMA(tt.values, tt.period)
			assert.Len(t, out, len(tt.values))
		})
	}
}

func TestEMA_Recurrence(t *testing.T) {
	values := []float64{10, 20, 30}
	out := EMA(values, 3) // k = 0.5

	require.Len(t, out, 3)
	assert.InDelta(t, 10.0, out[0], 1e-9) // seed = values[0]
	assert.InDelta(t, 15.0, out[1], 1e-9) // 20*0.5 + 10*0.5
	assert.InDelta(t, 22.5, out[2], 1e-9) // 30*0.5 + 15*0.5
}

func TestRSI_SentinelPrefix(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	out := RSI(closes, 14)

	require.Len(t, out, len(closes))
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be undefined", i)
	}
	assert.False(t, math.IsNaN(out[14]), "index 14 should be defined")
	assert.GreaterOrEqual(t, out[14], 0.0)
	assert.LessOrEqual(t, out[14], 100.0)
}

func TestRSI_BoundedAfterSeed(t *testing.T) {
	closes := make([]float64, 60)
	price := 50.0
	for i := range closes {
		// deterministic zig-zag with drift
		if i%3 == 0 {
			price -= 1.5
		} else {
			price += 1.0
		}
		closes[i] = price
	}

	out := RSI(closes, 14)
	for i := 14; i < len(out); i++ {
		require.False(t, math.IsNaN(out[i]), "index %d", i)
		assert.GreaterOrEqual(t, out[i], 0.0)
		assert.LessOrEqual(t, out[i], 100.0)
	}
}

func TestRSI_ZeroLossPinnedAtRS100(t *testing.T) {
	// Strictly rising closes: avgLoss stays zero, rs is pinned at 100
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}

	out := RSI(closes, 14)
	want := 100.0 - 100.0/101.0
	assert.InDelta(t, want, out[14], 1e-9)
}

func TestRSI_ShortInput(t *testing.T) {
	out := RSI([]float64{10, 11}, 14)
	for i, v := range out {
		assert.True(t, math.IsNaN(v), "index %d should be undefined", i)
	}
}

func TestATR_SeedIsSimpleMean(t *testing.T) {
	highs := []float64{12, 13, 14, 15}
	lows := []float64{10, 11, 12, 13}
	closes := []float64{11, 12, 13, 14}

	out := ATR(highs, lows, closes, 3)
	require.Len(t, out, 4)

	// tr0 = 12-10 = 2 (no previous close reference)
	// tr1 = max(2, |13-11|, |11-11|) = 2
	// tr2 = max(2, |14-12|, |12-12|) = 2
	seed := (2.0 + 2.0 + 2.0) / 3.0
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, seed, out[2], 1e-9)

	// tr3 = max(2, |15-13|, |13-13|) = 2 → Wilder recurrence
	want := (seed*2 + 2.0) / 3.0
	assert.InDelta(t, want, out[3], 1e-9)
}

func TestATR_GapUsesPreviousClose(t *testing.T) {
	highs := []float64{12, 20, 21}
	lows := []float64{10, 19, 20}
	closes := []float64{11, 19.5, 20.5}

	out := ATR(highs, lows, closes, 2)

	// tr0 = 2, tr1 = max(1, |20-11|, |19-11|) = 9 → seed = 5.5
	assert.InDelta(t, 5.5, out[1], 1e-9)
}

func TestVWAP(t *testing.T) {
	closes := []float64{10, 20}
	volumes := []float64{100, 100}

	out := VWAP(closes, volumes)
	require.Len(t, out, 2)
	assert.InDelta(t, 10.0, out[0], 1e-9)
	assert.InDelta(t, 15.0, out[1], 1e-9)
}

func TestVWAP_ZeroVolume(t *testing.T) {
	out := VWAP([]float64{10}, []float64{0})
	assert.True(t, math.IsNaN(out[0]))
}

func TestLast(t *testing.T) {
	assert.InDelta(t, 3.0, Last([]float64{1, 3, math.NaN()}), 1e-9)
	assert.True(t, math.IsNaN(Last([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(Last(nil)))
}
