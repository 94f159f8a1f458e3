package picker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/market/ths"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/logger"
)

const defaultWorkers = 5

// RankSource lists ranking boards and company financials.
type RankSource interface {
	BreakoutStocks(ctx context.Context, window int) ([]ths.RankedStock, error)
	NewHighStocks(ctx context.Context, scope ths.NewHighScope) ([]ths.RankedStock, error)
	VolumePriceFalling(ctx context.Context) ([]ths.FallingStock, error)
	FundFlows(ctx context.Context, days int) ([]market.FundFlow, error)
	Fundamentals(ctx context.Context, code string) (*market.Fundamentals, error)
}

// QuoteSource provides spot quotes, company profiles and daily history.
type QuoteSource interface {
	SpotQuotes(ctx context.Context) ([]market.Quote, error)
	Profile(ctx context.Context, code string) (*market.Profile, error)
	Daily(ctx context.Context, code, beg, end string) ([]market.Bar, error)
}

var scopeNames = map[string]ths.NewHighScope{
	"all_time":  ths.NewHighAllTime,
	"yearly":    ths.NewHighYearly,
	"half_year": ths.NewHighHalfYear,
	"monthly":   ths.NewHighMonthly,
}

// Picker runs the full selection pipeline: breakout universe, hard-cut
// screening, then concurrent scoring.
type Picker struct {
	strategy *strategy.Config
	ranks    RankSource
	quotes   QuoteSource
	workers  int
	logger   *logger.Logger
}

// New creates a picker with the default worker count.
func New(cfg *strategy.Config, ranks RankSource, quotes QuoteSource, log *logger.Logger) *Picker {
	return &Picker{
		strategy: cfg,
		ranks:    ranks,
		quotes:   quotes,
		workers:  defaultWorkers,
		logger:   log,
	}
}

// screenEnv holds the market snapshot the hard-cut filters run against.
type screenEnv struct {
	universe  []ths.RankedStock
	quotes    map[string]market.Quote
	newHigh   map[string]bool
	falling   map[string]bool
	fundFlows map[string]market.FundFlow
}

type candidate struct {
	idx   int
	code  string
	quote market.Quote
}

type scoreResult struct {
	idx    int
	record dataset.StockRecord
	reason string
}

// Pick screens and scores the universe as of now. The returned records are
// deduplicated, sorted by total score descending, and numbered from 1.
func (p *Picker) Pick(ctx context.Context, now time.Time) ([]dataset.StockRecord, error) {
	env, err := p.loadEnvironment(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make(map[string]int)
	seen := make(map[string]bool, len(env.universe))
	passed := make([]candidate, 0, len(env.universe))
	for i, r := range env.universe {
		if seen[r.Code] {
			filtered["duplicate"]++
			continue
		}
		seen[r.Code] = true

		quote, reason := p.checkConditions(env, r.Code)
		if reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, candidate{idx: i, code: r.Code, quote: quote})
	}

	beg, end := market.HistoryWindow(now, p.strategy.Scoring.HistoryDays)
	results := p.scoreAll(ctx, passed, beg, end)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Scoring completes out of order; restore universe order before ranking
	// so ties resolve the same way on every run.
	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })

	records := make([]dataset.StockRecord, 0, len(results))
	for _, res := range results {
		if res.reason != "" {
			filtered[res.reason]++
			continue
		}
		records = append(records, res.record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalScore > records[j].TotalScore
	})
	for i := range records {
		records[i].ID = i + 1
	}

	p.logger.WithFields(map[string]interface{}{
		"universe": len(env.universe),
		"screened": len(passed),
		"picked":   len(records),
		"filters":  filtered,
	}).Info("Stock picking completed")

	return records, nil
}

// loadEnvironment pulls the universe and the shared market snapshot. The
// universe and spot quotes are required; blacklist boards degrade to empty
// sets so one broken ranking page does not kill the run.
func (p *Picker) loadEnvironment(ctx context.Context) (*screenEnv, error) {
	universe, err := p.ranks.BreakoutStocks(ctx, p.strategy.Universe.BreakoutWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load breakout universe: %w", err)
	}

	quotes, err := p.quotes.SpotQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load spot quotes: %w", err)
	}

	env := &screenEnv{
		universe:  universe,
		quotes:    make(map[string]market.Quote, len(quotes)),
		newHigh:   make(map[string]bool),
		falling:   make(map[string]bool),
		fundFlows: make(map[string]market.FundFlow),
	}
	for _, q := range quotes {
		env.quotes[q.Code] = q
	}

	scope, ok := scopeNames[p.strategy.Universe.NewHighScope]
	if !ok {
		scope = ths.NewHighAllTime
	}
	highs, err := p.ranks.NewHighStocks(ctx, scope)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load new-high blacklist")
	}
	for _, h := range highs {
		env.newHigh[h.Code] = true
	}

	falling, err := p.ranks.VolumePriceFalling(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load volume-price-falling blacklist")
	}
	for _, f := range falling {
		if f.Days >= p.strategy.Universe.FallingMinDays {
			env.falling[f.Code] = true
		}
	}

	flows, err := p.ranks.FundFlows(ctx, p.strategy.Screening.FundFlowDays)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load fund flows")
	}
	for _, fl := range flows {
		env.fundFlows[fl.Code] = fl
	}

	p.logger.WithFields(map[string]interface{}{
		"universe":   len(universe),
		"quotes":     len(env.quotes),
		"new_high":   len(env.newHigh),
		"falling":    len(env.falling),
		"fund_flows": len(env.fundFlows),
	}).Info("Screening environment loaded")

	return env, nil
}

// checkConditions applies the hard cuts to one candidate. It returns the
// quote and an empty reason on pass, or the name of the filter that cut it.
func (p *Picker) checkConditions(env *screenEnv, code string) (market.Quote, string) {
	for _, prefix := range p.strategy.Universe.ExcludedBoards {
		if strings.HasPrefix(code, prefix) {
			return market.Quote{}, "board"
		}
	}

	quote, ok := env.quotes[code]
	if !ok {
		return market.Quote{}, "no_quote"
	}
	if strings.Contains(quote.Name, "ST") {
		return quote, "st"
	}
	if quote.Price <= 0 || quote.Volume <= 0 {
		return quote, "suspended"
	}
	if env.newHigh[code] {
		return quote, "new_high"
	}
	if env.falling[code] {
		return quote, "volume_price_falling"
	}

	// One board lot must fit inside a third of the funds cap.
	if quote.Price*100 > p.strategy.Screening.MaxFunds/3 {
		return quote, "affordability"
	}
	if quote.Price < p.strategy.Screening.MinPrice {
		return quote, "price"
	}
	if quote.Turnover < p.strategy.Screening.MinTurnover {
		return quote, "turnover"
	}

	thr := turnoverThreshold(quote.FloatCap)
	sustained := 0.0
	if flow, ok := env.fundFlows[code]; ok {
		sustained = flow.SustainedTurnover
	}
	if sustained < thr*3 || quote.TurnoverRate < thr {
		return quote, "turnover_rate"
	}

	return quote, ""
}

// turnoverThreshold scales the activity floor with float size: small caps
// must turn over far more to count as liquid.
func turnoverThreshold(floatCap float64) float64 {
	switch {
	case floatCap <= 50e8:
		return 0.15
	case floatCap <= 200e8:
		return 0.08
	default:
		return 0.03
	}
}

// scoreAll fans the surviving candidates out to a fixed worker pool.
func (p *Picker) scoreAll(ctx context.Context, passed []candidate, beg, end string) []scoreResult {
	candCh := make(chan candidate, len(passed))
	resultCh := make(chan scoreResult, len(passed))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.scoreWorker(ctx, candCh, resultCh, beg, end)
		}()
	}

	for _, c := range passed {
		candCh <- c
	}
	close(candCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]scoreResult, 0, len(passed))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

func (p *Picker) scoreWorker(ctx context.Context, in <-chan candidate, out chan<- scoreResult, beg, end string) {
	for cand := range in {
		select {
		case <-ctx.Done():
			out <- scoreResult{idx: cand.idx, reason: "canceled"}
			return
		default:
		}
		out <- p.scoreStock(ctx, cand, beg, end)
	}
}

// scoreStock resolves the industry, then computes both component scores.
// Fetch failures degrade to a zero component rather than dropping the row;
// only a blacklisted industry rejects at this stage.
func (p *Picker) scoreStock(ctx context.Context, cand candidate, beg, end string) scoreResult {
	industry := ""
	profile, err := p.quotes.Profile(ctx, cand.code)
	if err != nil {
		p.logger.WithError(err).WithField("code", cand.code).Warn("Failed to fetch profile")
	} else {
		industry = profile.Industry
	}
	if market.MatchesIndustry(industry, p.strategy.Screening.IndustryBlacklist) {
		return scoreResult{idx: cand.idx, reason: "industry"}
	}

	fundamental := 0.0
	fin, err := p.ranks.Fundamentals(ctx, cand.code)
	if err != nil {
		p.logger.WithError(err).WithField("code", cand.code).Warn("Failed to fetch fundamentals")
	} else {
		// The finance abstract has no market-based ratios; the spot quote
		// supplies the dynamic PE.
		fin.PERatio = cand.quote.PERatio
		fundamental = FundamentalScore(fin, industry, p.strategy.Scoring.TechIndustries)
	}

	technical := 0.0
	bars, err := p.quotes.Daily(ctx, cand.code, beg, end)
	if err != nil {
		p.logger.WithError(err).WithField("code", cand.code).Warn("Failed to fetch history")
	} else {
		technical = TechnicalScore(bars, p.strategy.Scoring.MinBars)
	}

	total := TotalScore(fundamental, technical,
		p.strategy.Scoring.FundamentalWeight, p.strategy.Scoring.TechnicalWeight)

	return scoreResult{
		idx: cand.idx,
		record: dataset.StockRecord{
			Code:             cand.code,
			Name:             cand.quote.Name,
			Price:            cand.quote.Price,
			Change:           cand.quote.ChangePct,
			MarketCap:        cand.quote.MarketCap,
			YTDChange:        cand.quote.YTDChange,
			Industry:         industry,
			FundamentalScore: fundamental,
			TechnicalScore:   technical,
			TotalScore:       total,
		},
	}
}
