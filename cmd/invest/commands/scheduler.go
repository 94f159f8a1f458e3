package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/market/ths"
	"github.com/newer-zhu/investment/internal/picker"
	"github.com/newer-zhu/investment/internal/report"
	"github.com/newer-zhu/investment/internal/scheduler"
	"github.com/newer-zhu/investment/internal/scheduler/jobs"
	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/internal/strategy"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the pipeline scheduler",
	Long: `Starts the scheduler daemon or inspects its jobs.

Subcommands:
  start   - start the scheduler
  list    - list registered jobs
  run     - run one job immediately
  status  - show job run statistics

Example:
  invest scheduler start
  invest scheduler list
  invest scheduler run daily_pick`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and keeps it running until interrupted.

Registered jobs:
- daily_pick: 16:30 on trading days (select and publish)
- history_sync: 17:10 on trading days (store daily bars, needs DATABASE_URL)
- daily_report: 22:00 on weekdays (mail the summary)
- maintenance: 03:30 daily (prune old files, bars and index entries)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job run statistics",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Scheduler ===")

	// Initialize dependencies
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]

		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Pick store and strategy
	st := store.NewCSVStore(cfg.OutputDir, log)
	strat, err := strategy.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	// 4. Market clients and the picker
	quotes := eastmoney.New(cfg, log)
	ranks := ths.New(cfg, log)
	p := picker.New(strat, ranks, quotes, log)

	// 5. Optional search index
	var indexer jobs.PickIndexer
	var idxPruner jobs.IndexPruner
	idx, err := search.Open(cfg.SearchIndexPath, log)
	if err != nil {
		log.WithError(err).Warn("Search index unavailable, picks will not be indexed")
	} else {
		indexer = idx
		idxPruner = idx
	}

	// 6. Optional database repositories
	var mirror jobs.PickMirror
	var bars *store.BarsRepository
	var barsPruner jobs.BarsPruner
	var picksPruner jobs.PicksPruner
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		picks := store.NewPicksRepository(db.Pool)
		bars = store.NewBarsRepository(db.Pool)
		mirror = picks
		barsPruner = bars
		picksPruner = picks
	}

	// 7. Daily report mail
	reporter := report.NewReporter(st, report.NewSMTPSender(cfg.SMTP), log)

	// 8. Create scheduler
	sched := scheduler.New(log)

	// 9. Register jobs
	sched.AddJob(jobs.NewDailyPickJob(p, st, indexer, mirror, log))
	sched.AddJob(jobs.NewDailyReportJob(reporter, log))
	sched.AddJob(jobs.NewMaintenanceJob(st, barsPruner, picksPruner, idxPruner, 0, 0, log))
	if bars != nil {
		sched.AddJob(jobs.NewHistorySyncJob(st, quotes, bars, strat.Scoring.HistoryDays, log))
	} else {
		log.Info("history_sync not registered, database not configured")
	}

	return sched, nil
}
