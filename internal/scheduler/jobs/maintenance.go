package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/logger"
)

// BarsPruner removes stored bars older than a cutoff.
type BarsPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PicksPruner removes stored pick snapshots older than a cutoff.
type PicksPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// IndexPruner removes indexed picks dated before a cutoff key.
type IndexPruner interface {
	Prune(cutoffKey string) (int, error)
}

// MaintenanceJob prunes aged pick files, database history and search
// documents.
type MaintenanceJob struct {
	store     *store.CSVStore
	bars      BarsPruner
	picks     PicksPruner
	index     IndexPruner
	keepFiles int
	keepDays  int
	logger    *logger.Logger
}

// NewMaintenanceJob creates the job. bars, picks and index may be nil
// when the backing stores are not configured. Non-positive retention
// falls back to 120 files and 730 days.
func NewMaintenanceJob(st *store.CSVStore, bars BarsPruner, picks PicksPruner, index IndexPruner, keepFiles, keepDays int, log *logger.Logger) *MaintenanceJob {
	if keepFiles <= 0 {
		keepFiles = 120
	}
	if keepDays <= 0 {
		keepDays = 730
	}
	return &MaintenanceJob{
		store:     st,
		bars:      bars,
		picks:     picks,
		index:     index,
		keepFiles: keepFiles,
		keepDays:  keepDays,
		logger:    log,
	}
}

// Name returns the job name.
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Schedule returns the cron schedule (03:30 daily).
func (j *MaintenanceJob) Schedule() string {
	return "0 30 3 * * *"
}

// Run prunes every configured store.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	removed, err := j.store.Prune(j.keepFiles)
	if err != nil {
		return fmt.Errorf("prune pick files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -j.keepDays)

	var barsDropped, picksDropped int64
	if j.bars != nil {
		if barsDropped, err = j.bars.DeleteBefore(ctx, cutoff); err != nil {
			return fmt.Errorf("prune bars: %w", err)
		}
	}
	if j.picks != nil {
		if picksDropped, err = j.picks.DeleteBefore(ctx, cutoff); err != nil {
			return fmt.Errorf("prune pick history: %w", err)
		}
	}

	docsDropped := 0
	if j.index != nil {
		if docsDropped, err = j.index.Prune(market.DateKey(cutoff)); err != nil {
			return fmt.Errorf("prune search index: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"files": removed,
		"bars":  barsDropped,
		"picks": picksDropped,
		"docs":  docsDropped,
	}).Info("Maintenance completed")

	return nil
}
