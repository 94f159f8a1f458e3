package strategy

import (
	"fmt"
	"math"
)

// ValidationError reports a single invalid strategy field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var breakoutWindows = map[int]bool{
	5: true, 10: true, 20: true, 30: true, 60: true, 90: true, 250: true, 500: true,
}

var fundFlowDays = map[int]bool{3: true, 5: true, 10: true, 20: true}

var newHighScopes = map[string]bool{
	"all_time": true, "yearly": true, "half_year": true, "monthly": true,
}

// Validate checks the strategy parameters for internal consistency.
func (c *Config) Validate() error {
	if c.Meta.StrategyID == "" {
		return &ValidationError{Field: "meta.strategy_id", Message: "is required"}
	}
	if !breakoutWindows[c.Universe.BreakoutWindow] {
		return &ValidationError{Field: "universe.breakout_window", Message: "must be one of 5, 10, 20, 30, 60, 90, 250, 500"}
	}
	if !newHighScopes[c.Universe.NewHighScope] {
		return &ValidationError{Field: "universe.new_high_scope", Message: "must be one of all_time, yearly, half_year, monthly"}
	}
	if c.Universe.FallingMinDays < 1 {
		return &ValidationError{Field: "universe.falling_min_days", Message: "must be at least 1"}
	}
	if c.Screening.MaxFunds <= 0 {
		return &ValidationError{Field: "screening.max_funds", Message: "must be positive"}
	}
	if c.Screening.MinPrice < 0 {
		return &ValidationError{Field: "screening.min_price", Message: "must not be negative"}
	}
	if c.Screening.MinTurnover < 0 {
		return &ValidationError{Field: "screening.min_turnover", Message: "must not be negative"}
	}
	if !fundFlowDays[c.Screening.FundFlowDays] {
		return &ValidationError{Field: "screening.fund_flow_days", Message: "must be one of 3, 5, 10, 20"}
	}
	if c.Scoring.FundamentalWeight < 0 || c.Scoring.TechnicalWeight < 0 {
		return &ValidationError{Field: "scoring", Message: "weights must not be negative"}
	}
	if math.Abs(c.Scoring.FundamentalWeight+c.Scoring.TechnicalWeight-1) > 1e-9 {
		return &ValidationError{Field: "scoring", Message: "fundamental_weight and technical_weight must sum to 1"}
	}
	if c.Scoring.HistoryDays < c.Scoring.MinBars {
		return &ValidationError{Field: "scoring.history_days", Message: "must cover at least min_bars trading days"}
	}
	if c.Scoring.MinBars < 1 {
		return &ValidationError{Field: "scoring.min_bars", Message: "must be at least 1"}
	}
	if c.Analyze.GoldenCrossWindow < 1 {
		return &ValidationError{Field: "analyze.golden_cross_window", Message: "must be at least 1"}
	}
	if c.Analyze.RSIFloor >= c.Analyze.RSICeiling {
		return &ValidationError{Field: "analyze.rsi_floor", Message: "must be below rsi_ceiling"}
	}
	return nil
}
