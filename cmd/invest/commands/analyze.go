package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/picker"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Re-check a published pick file against fresh history",
	Long: `Runs the confirmation pass over a published pick file.

Each pick is re-checked against freshly fetched daily history: MACD
just turned positive and still below the cap, close above MA20, a
recent golden cross and RSI inside the band. Survivors are written
back sorted by YTD change ascending. When nothing survives the file
is left untouched.

Example:
  invest analyze --date 20240627`,
	RunE: runAnalyze,
}

var (
	analyzeDate string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "date of the pick file to re-check (YYYYMMDD)")
	analyzeCmd.MarkFlagRequired("date")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Confirmation Pass ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	now, err := parseDateFlag(analyzeDate)
	if err != nil {
		return err
	}

	// 2. Build the analyzer
	strat, err := strategy.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	st := store.NewCSVStore(cfg.OutputDir, log)
	a := picker.NewAnalyzer(strat, eastmoney.New(cfg, log), st, log)

	// 3. Run it
	ctx := context.Background()
	res, err := a.Analyze(ctx, now)
	if err != nil {
		if errors.Is(err, store.ErrNoDataset) {
			return fmt.Errorf("no pick files published yet, run `invest pick` first")
		}
		return fmt.Errorf("analyze: %w", err)
	}

	fmt.Printf("📊 Checked %s: %d of %d picks confirmed\n",
		dataset.FormatDateLabel(res.DateKey), res.Kept, res.Total)

	if !res.Rewritten {
		fmt.Println("No pick survived, file left untouched")
		return nil
	}

	// 4. The cached copy of the rewritten file is now stale
	if rc, err := redis.New(cfg); err == nil {
		defer rc.Close()
		cache := redis.NewCache(rc, "invest")
		if err := cache.Delete(ctx, redis.DatasetKey(res.DateKey)); err != nil {
			log.WithError(err).Warn("Failed to drop cached dataset")
		}
	}

	PrintSuccess(fmt.Sprintf("Rewrote %s sorted by YTD change", st.Path(res.DateKey)))
	return nil
}
