package picker

import (
	"github.com/newer-zhu/investment/internal/indicator"
	"github.com/newer-zhu/investment/internal/market"
)

// TechnicalScore rates the trend and structure of a daily bar series on a
// 0-100 scale. It rewards early momentum near a low base and punishes
// overextension, so it reads best on forward-adjusted prices.
//
// Fewer than minBars bars scores 0: the indicators need a warm-up window
// before the readings mean anything.
func TechnicalScore(bars []market.Bar, minBars int) float64 {
	if minBars < 60 {
		minBars = 60
	}
	if len(bars) < minBars {
		return 0
	}

	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	_, _, macd := indicator.MACD(closes)
	ma5 := indicator.SMA(closes, 5)
	ma10 := indicator.SMA(closes, 10)
	ma20 := indicator.SMA(closes, 20)
	rsis := indicator.RSI(closes, 14)
	bbMid, bbUp, _ := indicator.Bollinger(closes, 20, 2)
	volRatio := indicator.VolumeRatio(volumes)

	lastClose := closes[n-1]
	rsi := rsis[n-1]
	if rsi == 0 {
		// An all-loss window reads as neutral rather than oversold.
		rsi = 50
	}

	score := 0.0

	// Trend alignment.
	switch {
	case ma5[n-1] > ma10[n-1] && ma10[n-1] > ma20[n-1]:
		score += 12
	case ma5[n-1] > ma10[n-1]:
		score += 6
	}

	// Overextension above the upper band cuts whatever the trend earned.
	if lastClose > bbUp[n-1]*1.02 {
		score *= 0.7
	}

	// MACD rewards the fresh cross above zero far more than staying there.
	switch {
	case macd[n-1] > 0 && macd[n-2] <= 0:
		score += 15
	case macd[n-1] > 0:
		score += 6
	}

	// RSI sweet spot. A NaN reading (flat window) falls through untouched.
	switch {
	case rsi >= 35 && rsi <= 65:
		score += 12
	case rsi < 30:
		score += 6
	case rsi > 80:
		score *= 0.6
	}

	// Volume only counts near the mid band. A surge at a high is a warning.
	nearMidLow := lastClose <= bbMid[n-1]*1.02
	switch {
	case volRatio >= 1.5 && nearMidLow:
		score += 20
	case volRatio >= 1.2 && nearMidLow:
		score += 12
	case volRatio >= 2.0:
		score *= 0.7
	}

	// Low-base turn: price still near the 20-day low, three rising closes,
	// and MA5 curling up.
	nearRecentLow := lastClose <= indicator.MinLast(closes, 20)*1.12
	priceRising := closes[n-1] > closes[n-2] &&
		closes[n-2] > closes[n-3] &&
		closes[n-3] > closes[n-4]
	ma5Up := ma5[n-1] > ma5[n-2]
	if nearRecentLow && priceRising && ma5Up {
		score += 18
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
