// Package picker screens the A-share universe and scores the survivors.
//
// The pipeline runs in two phases. Screening cuts the breakout universe down
// with hard filters (board, blacklist, liquidity). Scoring blends a
// fundamental score with a technical score into the final ranking.
package picker

import "math"

// TotalScore blends the two component scores. The fundamental score is the
// base and the technical score acts as an asymmetric accelerator: strong
// momentum lifts the blend slightly, weak momentum drags it down harder.
func TotalScore(fundamental, technical, weightF, weightT float64) float64 {
	base := weightF*fundamental + weightT*technical

	var factor float64
	switch {
	case technical >= 75:
		factor = 1.05
	case technical >= 60:
		factor = 1.02
	case technical >= 45:
		factor = 1.0
	case technical >= 30:
		factor = 0.95
	default:
		factor = 0.9
	}

	total := math.Min(100, math.Max(0, base*factor))
	return math.Round(total*100) / 100
}
