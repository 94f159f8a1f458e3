package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/monitor"
	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every configured backend",
	Long: `Prints what the current configuration resolves to: published
datasets, strategy fingerprint, position book, and whether the
database, redis and the search index are reachable.

Example:
  invest status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Status ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Println("\n📋 Configuration")
	PrintSeparator()
	PrintKeyValue("Environment", cfg.Env, 14)
	PrintKeyValue("Data mode", cfg.Data.Mode, 14)
	PrintKeyValue("Output dir", cfg.OutputDir, 14)

	// 2. Published datasets
	fmt.Println("\n📁 Datasets")
	PrintSeparator()
	st := store.NewCSVStore(cfg.OutputDir, log)
	dates, err := st.Dates()
	if err != nil {
		PrintKeyValue("Published", fmt.Sprintf("unreadable (%v)", err), 14)
	} else if len(dates) == 0 {
		PrintKeyValue("Published", "none", 14)
	} else {
		PrintKeyValue("Published", fmt.Sprintf("%d files", len(dates)), 14)
		PrintKeyValue("Newest", dataset.FormatDateLabel(dates[0]), 14)
		PrintKeyValue("Oldest", dataset.FormatDateLabel(dates[len(dates)-1]), 14)
	}

	// 3. Strategy fingerprint
	fmt.Println("\n🎯 Strategy")
	PrintSeparator()
	if _, err := os.Stat(cfg.StrategyFile); os.IsNotExist(err) {
		PrintKeyValue("File", "built-in defaults", 14)
	} else {
		PrintKeyValue("File", cfg.StrategyFile, 14)
	}
	if strat, err := strategy.LoadOrDefault(cfg.StrategyFile); err != nil {
		PrintKeyValue("Hash", fmt.Sprintf("invalid (%v)", err), 14)
	} else if hash, err := strat.Hash(); err == nil {
		PrintKeyValue("Hash", hash[:12], 14)
	}

	// 4. Position book
	positions, err := monitor.LoadPositions(cfg.Monitor.PositionsFile)
	fmt.Println("\n👁  Positions")
	PrintSeparator()
	if err != nil {
		PrintKeyValue("Book", fmt.Sprintf("not loaded (%v)", err), 14)
	} else {
		PrintKeyValue("Book", fmt.Sprintf("%d positions", len(positions)), 14)
	}

	// 5. Backends
	fmt.Println("\n🔌 Backends")
	PrintSeparator()
	PrintKeyValue("Database", databaseState(ctx, cfg), 14)
	PrintKeyValue("Redis", redisState(ctx, cfg), 14)
	PrintKeyValue("Search", searchState(cfg, log), 14)
	fmt.Println()

	return nil
}

func databaseState(ctx context.Context, cfg *config.Config) string {
	if cfg.Database.URL == "" {
		return "disabled"
	}
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Sprintf("down (%v)", err)
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		return fmt.Sprintf("down (%v)", err)
	}
	return "up"
}

func redisState(ctx context.Context, cfg *config.Config) string {
	if !cfg.Redis.Enabled {
		return "disabled"
	}
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Sprintf("down (%v)", err)
	}
	defer rc.Close()
	if err := rc.Redis().Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down (%v)", err)
	}
	return "up"
}

func searchState(cfg *config.Config, log *logger.Logger) string {
	idx, err := search.Open(cfg.SearchIndexPath, log)
	if err != nil {
		return fmt.Sprintf("unavailable (%v)", err)
	}
	defer idx.Close()
	count, err := idx.DocCount()
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	return fmt.Sprintf("%d documents", count)
}
