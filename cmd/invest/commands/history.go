package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/scheduler/jobs"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Sync daily bars for a published pick file",
	Long: `Fetches daily history for every stock in a pick file and stores
the bars in the database, keyed (code, trade_date). Deep indicator
queries read from these bars instead of refetching.

Requires DATABASE_URL.

Example:
  invest history
  invest history --date 20240627 --days 250`,
	RunE: runHistory,
}

var (
	historyDate string
	historyDays int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	// Flags
	historyCmd.Flags().StringVar(&historyDate, "date", "", "pick file to sync (YYYYMMDD, default newest)")
	historyCmd.Flags().IntVar(&historyDays, "days", 120, "calendar days of history to fetch")
}

func runHistory(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest History Sync ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for history sync")
	}

	// 2. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 3. Resolve the pick file
	st := store.NewCSVStore(cfg.OutputDir, log)
	dateKey := historyDate
	if dateKey == "" {
		dateKey, err = st.TodayOrLatest(time.Now())
		if err != nil {
			if errors.Is(err, store.ErrNoDataset) {
				return fmt.Errorf("no pick files published yet, run `invest pick` first")
			}
			return err
		}
	} else if !dataset.ValidDateKey(dateKey) {
		return fmt.Errorf("invalid date %q, expected YYYYMMDD", dateKey)
	}

	fmt.Printf("📊 Syncing %d days of history for picks of %s\n", historyDays, dataset.FormatDateLabel(dateKey))

	// 4. Run the sync
	job := jobs.NewHistorySyncJob(st, eastmoney.New(cfg, log), store.NewBarsRepository(db.Pool), historyDays, log)
	if err := job.Sync(context.Background(), dateKey); err != nil {
		return fmt.Errorf("history sync: %w", err)
	}

	PrintSuccess(fmt.Sprintf("History synced for %s", dateKey))
	return nil
}
