// Package market defines the A-share market data types shared by the
// data providers and the selection pipeline.
package market

// Quote is one stock's spot snapshot from the realtime list.
type Quote struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	ChangePct    float64 `json:"change_pct"`    // percent
	Volume       float64 `json:"volume"`        // lots
	Turnover     float64 `json:"turnover"`      // yuan
	TurnoverRate float64 `json:"turnover_rate"` // percent
	VolumeRatio  float64 `json:"volume_ratio"`
	PERatio      float64 `json:"pe_ratio"`
	MarketCap    float64 `json:"market_cap"` // yuan
	FloatCap     float64 `json:"float_cap"`  // yuan
	YTDChange    float64 `json:"ytd_change"` // percent
}

// Bar is one daily candle.
type Bar struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Open         float64 `json:"open"`
	Close        float64 `json:"close"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Volume       float64 `json:"volume"` // lots
	Amount       float64 `json:"amount"` // yuan
	Amplitude    float64 `json:"amplitude"`
	ChangePct    float64 `json:"change_pct"`
	ChangeAmt    float64 `json:"change_amt"`
	TurnoverRate float64 `json:"turnover_rate"`
}

// Profile is one stock's static description.
type Profile struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	TotalShares float64 `json:"total_shares"`
	FloatShares float64 `json:"float_shares"`
	MarketCap   float64 `json:"market_cap"`
	FloatCap    float64 `json:"float_cap"`
	ListingDate string  `json:"listing_date"`
}

// FundFlow is one stock's multi-day money flow ranking entry. Rates
// parsed from percent strings are fractions.
type FundFlow struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	StageChangePct    float64 `json:"stage_change_pct"`
	SustainedTurnover float64 `json:"sustained_turnover"`
	NetInflow         float64 `json:"net_inflow"` // yuan
	Turnover          float64 `json:"turnover"`   // yuan
}

// Fundamentals holds the latest reported statement abstract. Ratio
// fields parsed from percent strings are fractions.
type Fundamentals struct {
	Code            string  `json:"code"`
	NetProfit       float64 `json:"net_profit"` // yuan
	ROE             float64 `json:"roe"`
	GrossMargin     float64 `json:"gross_margin"`
	NetProfitGrowth float64 `json:"net_profit_growth"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	DebtRatio       float64 `json:"debt_ratio"`
	CurrentRatio    float64 `json:"current_ratio"`
	PERatio         float64 `json:"pe_ratio"`
	PBRatio         float64 `json:"pb_ratio"`
}
