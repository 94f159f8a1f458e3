// Package jobs holds the scheduled pipeline jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/logger"
)

// PickRunner runs the selection pipeline.
type PickRunner interface {
	Pick(ctx context.Context, now time.Time) ([]dataset.StockRecord, error)
}

// PickIndexer mirrors a published pick set into the search index.
type PickIndexer interface {
	IndexPicks(dateKey string, records []dataset.StockRecord) error
}

// PickMirror mirrors a published pick set into the database.
type PickMirror interface {
	SaveBatch(ctx context.Context, date time.Time, records []dataset.StockRecord) error
}

// DailyPickJob runs the selection pipeline after the close on trading
// days and publishes the day's pick file.
type DailyPickJob struct {
	picker  PickRunner
	store   *store.CSVStore
	indexer PickIndexer
	mirror  PickMirror
	logger  *logger.Logger
	now     func() time.Time
}

// NewDailyPickJob creates the job. indexer and mirror may be nil when
// search or the database is not configured.
func NewDailyPickJob(p PickRunner, st *store.CSVStore, indexer PickIndexer, mirror PickMirror, log *logger.Logger) *DailyPickJob {
	return &DailyPickJob{
		picker:  p,
		store:   st,
		indexer: indexer,
		mirror:  mirror,
		logger:  log,
		now:     time.Now,
	}
}

// Name returns the job name.
func (j *DailyPickJob) Name() string {
	return "daily_pick"
}

// Schedule returns the cron schedule (16:30 on weekdays, after the
// close).
func (j *DailyPickJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run executes one pick cycle.
func (j *DailyPickJob) Run(ctx context.Context) error {
	now := j.now()
	if !market.IsTradingDay(now) {
		j.logger.Info("Skipping pick, not a trading day")
		return nil
	}

	records, err := j.picker.Pick(ctx, now)
	if err != nil {
		return fmt.Errorf("pick: %w", err)
	}
	if len(records) == 0 {
		j.logger.Warn("No stocks picked, keeping the previous file")
		return nil
	}

	dateKey := market.DateKey(now)
	if err := j.store.Write(dateKey, records); err != nil {
		return fmt.Errorf("publish picks: %w", err)
	}

	// Mirror failures log and do not fail the job.
	if j.indexer != nil {
		if err := j.indexer.IndexPicks(dateKey, records); err != nil {
			j.logger.WithError(err).Warn("Failed to index picks")
		}
	}
	if j.mirror != nil {
		if err := j.mirror.SaveBatch(ctx, now, records); err != nil {
			j.logger.WithError(err).Warn("Failed to mirror picks to database")
		}
	}

	return nil
}
