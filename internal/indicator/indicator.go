// Package indicator computes the technical series the scorers read:
// moving averages, MACD, RSI, Bollinger bands and volume ratios.
// Outputs align index-for-index with the input; positions without a
// full lookback window hold NaN.
package indicator

import "math"

// EMA returns the exponential moving average with the given span,
// alpha 2/(span+1), seeded with the first value.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		// Increment form stays exact on constant stretches.
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// SMA returns the simple moving average over the window.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RollingStd returns the rolling sample standard deviation over the
// window.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 || window < 2 {
			out[i] = math.NaN()
			continue
		}
		slice := values[i-window+1 : i+1]

		var mean float64
		for _, v := range slice {
			mean += v
		}
		mean /= float64(window)

		var sq float64
		for _, v := range slice {
			d := v - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

// RSI returns the relative strength index using simple moving
// averages of gains and losses. A window with no losses reads 100; a
// flat window reads NaN.
func RSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period+1 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(values); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = math.NaN()
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// MACD returns the DIF, DEA and MACD histogram series using the
// 12/26/9 parameters, with the histogram doubled in the A-share
// convention.
func MACD(values []float64) (dif, dea, macd []float64) {
	ema12 := EMA(values, 12)
	ema26 := EMA(values, 26)

	dif = make([]float64, len(values))
	for i := range values {
		dif[i] = ema12[i] - ema26[i]
	}
	dea = EMA(dif, 9)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = 2 * (dif[i] - dea[i])
	}
	return dif, dea, macd
}

// Bollinger returns the middle, upper and lower bands over the window
// at the given width in standard deviations.
func Bollinger(values []float64, window int, width float64) (mid, upper, lower []float64) {
	mid = SMA(values, window)
	std := RollingStd(values, window)

	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		upper[i] = mid[i] + width*std[i]
		lower[i] = mid[i] - width*std[i]
	}
	return mid, upper, lower
}

// VolumeRatio compares the latest volume against the larger of its
// 5-day and 10-day averages. Without enough history it returns 0.
func VolumeRatio(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}

	base := math.Max(last(SMA(volumes, 5)), last(SMA(volumes, 10)))
	if math.IsNaN(base) || base <= 0 {
		return 0
	}
	return volumes[len(volumes)-1] / base
}

// MinLast returns the minimum over the trailing window.
func MinLast(values []float64, window int) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	min := values[start]
	for _, v := range values[start+1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
