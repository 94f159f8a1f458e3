// Package strategy loads the stock selection strategy parameters
// from YAML.
package strategy

// Config is the full selection strategy.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Screening Screening `yaml:"screening" json:"screening"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Analyze   Analyze   `yaml:"analyze" json:"analyze"`
}

// Meta identifies the strategy revision.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe selects the candidate pool before screening.
type Universe struct {
	BreakoutWindow int      `yaml:"breakout_window" json:"breakout_window"`
	ExcludedBoards []string `yaml:"excluded_boards" json:"excluded_boards"`
	NewHighScope   string   `yaml:"new_high_scope" json:"new_high_scope"`
	FallingMinDays int      `yaml:"falling_min_days" json:"falling_min_days"`
}

// Screening holds the liquidity and affordability gates.
type Screening struct {
	MaxFunds          float64  `yaml:"max_funds" json:"max_funds"`
	MinPrice          float64  `yaml:"min_price" json:"min_price"`
	MinTurnover       float64  `yaml:"min_turnover" json:"min_turnover"`
	FundFlowDays      int      `yaml:"fund_flow_days" json:"fund_flow_days"`
	IndustryBlacklist []string `yaml:"industry_blacklist" json:"industry_blacklist"`
}

// Scoring holds the fundamental/technical blend parameters.
type Scoring struct {
	FundamentalWeight float64  `yaml:"fundamental_weight" json:"fundamental_weight"`
	TechnicalWeight   float64  `yaml:"technical_weight" json:"technical_weight"`
	HistoryDays       int      `yaml:"history_days" json:"history_days"`
	MinBars           int      `yaml:"min_bars" json:"min_bars"`
	TechIndustries    []string `yaml:"tech_industries" json:"tech_industries"`
}

// Analyze holds the second-pass confirmation gates.
type Analyze struct {
	GoldenCrossWindow int     `yaml:"golden_cross_window" json:"golden_cross_window"`
	MACDCeiling       float64 `yaml:"macd_ceiling" json:"macd_ceiling"`
	RSIFloor          float64 `yaml:"rsi_floor" json:"rsi_floor"`
	RSICeiling        float64 `yaml:"rsi_ceiling" json:"rsi_ceiling"`
}

// Default returns the baseline A-share strategy.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "cn_a_breakout_v1",
			Version:    "1.0",
		},
		Universe: Universe{
			BreakoutWindow: 30,
			ExcludedBoards: []string{"300", "301", "688", "689", "8"},
			NewHighScope:   "all_time",
			FallingMinDays: 3,
		},
		Screening: Screening{
			MaxFunds:          20000,
			MinPrice:          5,
			MinTurnover:       50_000_000,
			FundFlowDays:      3,
			IndustryBlacklist: []string{"国防", "军工", "钢铁", "贵金属"},
		},
		Scoring: Scoring{
			FundamentalWeight: 0.65,
			TechnicalWeight:   0.35,
			HistoryDays:       180,
			MinBars:           60,
			TechIndustries:    []string{"科技", "半导体", "互联网", "新能源", "软件", "芯片", "AI", "通信"},
		},
		Analyze: Analyze{
			GoldenCrossWindow: 10,
			MACDCeiling:       0.2,
			RSIFloor:          35,
			RSICeiling:        75,
		},
	}
}
