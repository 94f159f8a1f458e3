package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/market/ths"
	"github.com/newer-zhu/investment/internal/picker"
	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
)

// pickCmd represents the pick command
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Run the selection pipeline and publish the picks",
	Long: `Runs the full selection pipeline once and publishes the result.

This command:
- scrapes the MA-breakout rank list as the base universe
- screens it against the live quote snapshot
- scores the survivors on history and fundamentals
- publishes picked_stocks_{date}.csv
- mirrors the picks to the search index and database when configured

Unlike the scheduled job it runs on any day, so a missed session can
be backfilled by hand.

Example:
  invest pick
  invest pick --date 20240627`,
	RunE: runPick,
}

var (
	pickDate string
)

func init() {
	rootCmd.AddCommand(pickCmd)

	// Flags
	pickCmd.Flags().StringVar(&pickDate, "date", "", "date key for the published file (YYYYMMDD, default today)")
}

func runPick(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Daily Pick ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	now, err := parseDateFlag(pickDate)
	if err != nil {
		return err
	}
	dateKey := market.DateKey(now)

	// 2. Strategy and market clients
	strat, err := strategy.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	quotes := eastmoney.New(cfg, log)
	ranks := ths.New(cfg, log)
	st := store.NewCSVStore(cfg.OutputDir, log)
	p := picker.New(strat, ranks, quotes, log)

	fmt.Printf("📊 Picking stocks for %s\n", dataset.FormatDateLabel(dateKey))

	// 3. Run the pipeline
	ctx := context.Background()
	records, err := p.Pick(ctx, now)
	if err != nil {
		return fmt.Errorf("pick: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("\nNo stocks passed the screen, nothing published")
		return nil
	}

	// 4. Publish
	if err := st.Write(dateKey, records); err != nil {
		return fmt.Errorf("publish picks: %w", err)
	}

	// 5. Best-effort mirrors
	mirrorPicks(ctx, cfg, log, dateKey, now, records)

	PrintSuccess(fmt.Sprintf("Published %d picks to %s", len(records), st.Path(dateKey)))
	printTopPicks(records, 10)

	// 6. How the previous pick list fared today
	reportPreviousPicks(ctx, strat, quotes, st, log, now)

	return nil
}

// mirrorPicks copies a published pick set into the search index and the
// database. Both are optional and a failure never fails the publish.
func mirrorPicks(ctx context.Context, cfg *config.Config, log *logger.Logger, dateKey string, now time.Time, records []dataset.StockRecord) {
	if idx, err := search.Open(cfg.SearchIndexPath, log); err != nil {
		log.WithError(err).Warn("Failed to open search index, picks not indexed")
	} else {
		if err := idx.IndexPicks(dateKey, records); err != nil {
			log.WithError(err).Warn("Failed to index picks")
		}
		idx.Close()
	}

	if cfg.Database.URL == "" {
		return
	}
	db, err := database.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to database, picks not mirrored")
		return
	}
	defer db.Close()
	if err := store.NewPicksRepository(db.Pool).SaveBatch(ctx, now, records); err != nil {
		log.WithError(err).Warn("Failed to mirror picks to database")
	}
}

// printTopPicks prints up to n records as a console table.
func printTopPicks(records []dataset.StockRecord, n int) {
	if n > len(records) {
		n = len(records)
	}

	fmt.Printf("\nTop %d by total score:\n", n)
	widths := []int{8, 12, 8, 8, 8, 8}
	PrintTableHeader([]string{"CODE", "NAME", "PRICE", "FUND", "TECH", "TOTAL"}, widths)
	for _, r := range records[:n] {
		PrintTableRow([]string{
			r.Code,
			r.Name,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			strconv.FormatFloat(r.FundamentalScore, 'f', 1, 64),
			strconv.FormatFloat(r.TechnicalScore, 'f', 1, 64),
			strconv.FormatFloat(r.TotalScore, 'f', 1, 64),
		}, widths)
	}
}

// reportPreviousPicks prints how the previous published picks fared in
// today's session. Best effort, a fresh store simply has no previous
// file.
func reportPreviousPicks(ctx context.Context, strat *strategy.Config, quotes picker.QuoteSource, st *store.CSVStore, log *logger.Logger, now time.Time) {
	a := picker.NewAnalyzer(strat, quotes, st, log)
	rep, err := a.PortfolioCheck(ctx, now)
	if err != nil {
		if !errors.Is(err, store.ErrNoDataset) {
			log.WithError(err).Warn("Previous pick check failed")
		}
		return
	}
	fmt.Printf("\n📈 Previous picks (%s): %d of %d matched in today's quotes, avg change %+.2f%%\n",
		dataset.FormatDateLabel(rep.PrevDate), rep.Matched, rep.Codes, rep.AvgChange)
}
