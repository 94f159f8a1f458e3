package picker

import (
	"context"
	"sort"
	"time"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/indicator"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/logger"
)

// Analyzer re-checks a published pick file against fresh history and keeps
// only the rows still in a healthy entry window. The surviving rows are
// written back to the same file, sorted by year-to-date change ascending.
type Analyzer struct {
	strategy *strategy.Config
	market   QuoteSource
	store    *store.CSVStore
	logger   *logger.Logger
}

// NewAnalyzer creates an analyzer over the published pick files.
func NewAnalyzer(cfg *strategy.Config, market QuoteSource, st *store.CSVStore, log *logger.Logger) *Analyzer {
	return &Analyzer{strategy: cfg, market: market, store: st, logger: log}
}

// AnalyzeResult summarizes one confirmation pass.
type AnalyzeResult struct {
	DateKey   string
	Total     int
	Kept      int
	Rewritten bool
}

// Analyze runs the confirmation pass on today's pick file, or the newest
// one when today has none. When no row survives the original file is left
// untouched.
func (a *Analyzer) Analyze(ctx context.Context, now time.Time) (*AnalyzeResult, error) {
	key, err := a.store.TodayOrLatest(now)
	if err != nil {
		return nil, err
	}

	rows, err := a.store.ReadRows(key)
	if err != nil {
		return nil, err
	}
	records := dataset.Normalize(rows)

	result := &AnalyzeResult{DateKey: key, Total: len(records)}
	if len(records) == 0 {
		a.logger.WithField("date", key).Warn("Pick file is empty, nothing to analyze")
		return result, nil
	}

	beg, end := market.HistoryWindow(now, a.strategy.Scoring.HistoryDays)

	kept := make([]dataset.StockRecord, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := a.market.Daily(ctx, rec.Code, beg, end)
		if err != nil {
			a.logger.WithError(err).WithField("code", rec.Code).Warn("Failed to fetch history, dropping from confirmation")
			continue
		}
		if !macdFilter(bars, a.strategy.Analyze) {
			continue
		}

		a.logger.WithFields(map[string]interface{}{
			"code":     rec.Code,
			"name":     rec.Name,
			"industry": rec.Industry,
			"ytd":      rec.YTDChange,
		}).Debug("Confirmation passed")
		kept = append(kept, rec)
	}

	result.Kept = len(kept)
	if len(kept) == 0 {
		a.logger.WithFields(map[string]interface{}{
			"date":  key,
			"total": result.Total,
		}).Info("No stocks passed confirmation, file left unchanged")
		return result, nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].YTDChange < kept[j].YTDChange
	})
	for i := range kept {
		kept[i].ID = i + 1
	}

	if err := a.store.Write(key, kept); err != nil {
		return nil, err
	}
	result.Rewritten = true

	a.logger.WithFields(map[string]interface{}{
		"date":  key,
		"total": result.Total,
		"kept":  result.Kept,
	}).Info("Confirmation pass completed")

	return result, nil
}

// macdFilter is the entry-window confirmation: MACD barely above zero with
// price holding over MA20, a recent golden cross, and RSI inside the band.
func macdFilter(bars []market.Bar, cfg strategy.Analyze) bool {
	if len(bars) < 2 {
		return false
	}

	n := len(bars)
	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	dif, dea, macd := indicator.MACD(closes)
	ma20 := indicator.SMA(closes, 20)
	rsi := indicator.RSI(closes, 14)

	cond1 := macd[n-1] > 0 && macd[n-1] < cfg.MACDCeiling && closes[n-1] > ma20[n-1]

	cond2 := false
	start := n - cfg.GoldenCrossWindow
	if start < 1 {
		start = 1
	}
	for i := start; i < n; i++ {
		if dif[i] > dea[i] && dif[i-1] <= dea[i-1] {
			cond2 = true
			break
		}
	}

	cond3 := rsi[n-1] > cfg.RSIFloor && rsi[n-1] < cfg.RSICeiling

	return cond1 && cond2 && cond3
}

// PortfolioReport is how the previous pick list fared in today's session.
type PortfolioReport struct {
	PrevDate  string
	Codes     int
	Matched   int
	AvgChange float64
}

// PortfolioCheck takes the newest pick file published before today as a
// paper portfolio and averages its members' change in today's quotes.
func (a *Analyzer) PortfolioCheck(ctx context.Context, now time.Time) (*PortfolioReport, error) {
	prevKey, err := a.store.PreviousTo(market.DateKey(now))
	if err != nil {
		return nil, err
	}

	rows, err := a.store.ReadRows(prevKey)
	if err != nil {
		return nil, err
	}
	records := dataset.Normalize(rows)

	codes := make(map[string]bool, len(records))
	for _, rec := range records {
		codes[rec.Code] = true
	}

	report := &PortfolioReport{PrevDate: prevKey, Codes: len(codes)}
	if len(codes) == 0 {
		return report, nil
	}

	quotes, err := a.market.SpotQuotes(ctx)
	if err != nil {
		return nil, err
	}

	sum := 0.0
	for _, q := range quotes {
		if codes[q.Code] {
			sum += q.ChangePct
			report.Matched++
		}
	}
	if report.Matched > 0 {
		report.AvgChange = sum / float64(report.Matched)
	}

	a.logger.WithFields(map[string]interface{}{
		"prev_date":  prevKey,
		"codes":      report.Codes,
		"matched":    report.Matched,
		"avg_change": report.AvgChange,
	}).Info("Previous portfolio checked against today's quotes")

	return report, nil
}
