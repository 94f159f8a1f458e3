package picker

import (
	"fmt"
	"testing"

	"github.com/newer-zhu/investment/internal/market"
)

// makeBars builds a daily series from parallel close and volume values.
func makeBars(closes, volumes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i := range closes {
		bars[i] = market.Bar{
			Date:   fmt.Sprintf("2024-01-%02d", i%28+1),
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTechnicalScoreTooFewBars(t *testing.T) {
	bars := makeBars(repeat(100, 59), repeat(1e6, 59))
	if got := TechnicalScore(bars, 60); got != 0 {
		t.Errorf("TechnicalScore() = %v, want 0 for short history", got)
	}
}

func TestTechnicalScoreFlatSeries(t *testing.T) {
	// No trend, zero MACD, NaN RSI, volume ratio 1: nothing fires.
	bars := makeBars(repeat(100, 80), repeat(1e6, 80))
	if got := TechnicalScore(bars, 60); got != 0 {
		t.Errorf("TechnicalScore() = %v, want 0 for flat series", got)
	}
}

func TestTechnicalScoreSteadyUptrend(t *testing.T) {
	// Aligned MAs (+12) and positive MACD (+6), then the all-gain RSI
	// overheat cut (x0.6), plus the low-base turn (+18) since a linear
	// climb stays within 12% of its 20-day low.
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := makeBars(closes, repeat(1e6, 100))

	got := TechnicalScore(bars, 60)
	if !approxEqual(got, 28.8) {
		t.Errorf("TechnicalScore() = %v, want 28.8", got)
	}
}

func TestTechnicalScoreSpikeAboveBand(t *testing.T) {
	// A single huge jump: trend bonus cut by the band overshoot
	// (12*0.7), fresh MACD cross (+15), then the RSI overheat cut.
	closes := append(repeat(100, 99), 200)
	bars := makeBars(closes, repeat(1e6, 100))

	got := TechnicalScore(bars, 60)
	if !approxEqual(got, 14.04) {
		t.Errorf("TechnicalScore() = %v, want 14.04", got)
	}
}

func TestTechnicalScoreVolumeSurgeNearBase(t *testing.T) {
	// Flat price with a volume surge at the mid band earns the full
	// volume bonus and nothing else.
	closes := repeat(100, 100)
	volumes := append(repeat(1000, 99), 2000)
	bars := makeBars(closes, volumes)

	if got := TechnicalScore(bars, 60); got != 20 {
		t.Errorf("TechnicalScore() = %v, want 20", got)
	}
}

func TestTechnicalScoreSurgeAtHighPenalized(t *testing.T) {
	// The same volume surge far above the mid band flips from bonus to
	// penalty.
	closes := append(repeat(100, 99), 200)
	volumes := append(repeat(1000, 99), 3000)
	bars := makeBars(closes, volumes)

	got := TechnicalScore(bars, 60)
	if !approxEqual(got, 9.828) {
		t.Errorf("TechnicalScore() = %v, want 9.828", got)
	}
}

func TestTechnicalScoreMinBarsFloor(t *testing.T) {
	// A configured floor below the indicator warm-up is raised to it.
	bars := makeBars(repeat(100, 50), repeat(1e6, 50))
	if got := TechnicalScore(bars, 10); got != 0 {
		t.Errorf("TechnicalScore() = %v, want 0 below warm-up", got)
	}
}
