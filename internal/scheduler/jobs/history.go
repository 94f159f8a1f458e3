package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/logger"
)

// BarFetcher pulls daily history for one stock.
type BarFetcher interface {
	Daily(ctx context.Context, code, beg, end string) ([]market.Bar, error)
}

// BarSaver persists fetched history.
type BarSaver interface {
	SaveBatch(ctx context.Context, code string, bars []market.Bar) error
}

// HistorySyncJob stores daily bars for every stock in the newest pick
// file.
type HistorySyncJob struct {
	store  *store.CSVStore
	quotes BarFetcher
	bars   BarSaver
	days   int
	logger *logger.Logger
	now    func() time.Time
}

// NewHistorySyncJob creates the job with a lookback of days calendar
// days.
func NewHistorySyncJob(st *store.CSVStore, quotes BarFetcher, bars BarSaver, days int, log *logger.Logger) *HistorySyncJob {
	if days <= 0 {
		days = 120
	}
	return &HistorySyncJob{
		store:  st,
		quotes: quotes,
		bars:   bars,
		days:   days,
		logger: log,
		now:    time.Now,
	}
}

// Name returns the job name.
func (j *HistorySyncJob) Name() string {
	return "history_sync"
}

// Schedule returns the cron schedule (17:10 on weekdays, after the
// pick run).
func (j *HistorySyncJob) Schedule() string {
	return "0 10 17 * * 1-5"
}

// Run fetches and stores history for the newest pick file.
func (j *HistorySyncJob) Run(ctx context.Context) error {
	now := j.now()
	if !market.IsTradingDay(now) {
		j.logger.Info("Skipping history sync, not a trading day")
		return nil
	}

	dateKey, err := j.store.TodayOrLatest(now)
	if errors.Is(err, store.ErrNoDataset) {
		j.logger.Info("No pick file published, nothing to sync")
		return nil
	}
	if err != nil {
		return err
	}

	return j.Sync(ctx, dateKey)
}

// Sync fetches and stores history for one pick file. A single failing
// stock is logged and skipped; the sync fails only when every stock
// fails.
func (j *HistorySyncJob) Sync(ctx context.Context, dateKey string) error {
	rows, err := j.store.ReadRows(dateKey)
	if err != nil {
		return fmt.Errorf("read picks for %s: %w", dateKey, err)
	}
	records := dataset.Normalize(rows)

	beg, end := market.HistoryWindow(j.now(), j.days)

	synced := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		bars, err := j.quotes.Daily(ctx, rec.Code, beg, end)
		if err != nil {
			j.logger.WithError(err).WithField("code", rec.Code).Warn("Failed to fetch history")
			continue
		}
		if err := j.bars.SaveBatch(ctx, rec.Code, bars); err != nil {
			j.logger.WithError(err).WithField("code", rec.Code).Warn("Failed to store history")
			continue
		}
		synced++
	}

	if synced == 0 && len(records) > 0 {
		return fmt.Errorf("history sync failed for all %d stocks", len(records))
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   dateKey,
		"stocks": len(records),
		"synced": synced,
	}).Info("History sync completed")

	return nil
}
