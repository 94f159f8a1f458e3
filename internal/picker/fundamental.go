package picker

import "github.com/newer-zhu/investment/internal/market"

// FundamentalScore rates financial safety and participation quality on a
// 0-100 scale. Hard disqualifiers come first, then profitability, growth
// and balance-sheet tiers, then a valuation penalty. Tech industries get
// looser growth and leverage limits than traditional ones.
//
// Ratio fields are fractions (0.15 means 15%), PE is the raw multiple.
// A nil input scores 0.
func FundamentalScore(f *market.Fundamentals, industry string, techIndustries []string) float64 {
	if f == nil {
		return 0
	}

	isTech := market.MatchesIndustry(industry, techIndustries)

	// Mine removal comes before any scoring.
	if isTech {
		if f.RevenueGrowth < -0.08 {
			return 0
		}
		if f.NetProfit < 0 && f.NetProfitGrowth < -0.3 {
			return 0
		}
		if f.DebtRatio > 0.75 {
			return 0
		}
	} else {
		if f.NetProfit <= 0 {
			return 0
		}
		if f.RevenueGrowth < -0.05 {
			return 0
		}
		if f.DebtRatio > 0.7 {
			return 0
		}
		if f.CurrentRatio < 0.7 {
			return 0
		}
		if f.GrossMargin < 0.08 {
			return 0
		}
	}

	score := 0.0

	// Profitability.
	switch {
	case f.ROE >= 0.15:
		score += 18
	case f.ROE >= 0.10:
		score += 15
	case f.ROE >= 0.06:
		score += 10
	case f.ROE >= 0.03:
		score += 5
	}

	// Growth.
	switch {
	case f.RevenueGrowth > 0.20 && f.NetProfitGrowth > 0.20:
		score += 25
	case f.RevenueGrowth > 0.10:
		score += 18
	case f.RevenueGrowth > 0:
		score += 12
	case f.RevenueGrowth > -0.05:
		score += 6
	}

	// Balance-sheet safety.
	switch {
	case f.DebtRatio < 0.35 && f.CurrentRatio > 1.2:
		score += 20
	case f.DebtRatio < 0.55 && f.CurrentRatio > 0.9:
		score += 12
	case f.DebtRatio < 0.7:
		score += 6
	}

	// Valuation only punishes, never rewards.
	if f.PERatio > 0 {
		if isTech && f.PERatio > 80 {
			score *= 0.75
		} else if !isTech && f.PERatio > 50 {
			score *= 0.6
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
