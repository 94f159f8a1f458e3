package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/report"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/logger"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Mail the daily pick summary",
	Long: `Composes the pick summary mail for a date and sends it to the
configured recipients over SMTP. Today's pick file is preferred,
falling back to the newest published one, and a missing file still
produces a mail saying nothing was picked.

Example:
  invest report
  invest report --dry-run
  invest report --date 20240627`,
	RunE: runReport,
}

var (
	reportDate   string
	reportDryRun bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	// Flags
	reportCmd.Flags().StringVar(&reportDate, "date", "", "report date (YYYYMMDD, default today)")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "print the mail instead of sending it")
}

func runReport(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	now, err := parseDateFlag(reportDate)
	if err != nil {
		return err
	}

	st := store.NewCSVStore(cfg.OutputDir, log)

	// 2. Dry run prints the composed mail and stops
	if reportDryRun {
		rep, err := report.NewReporter(st, nil, log).Compose(now)
		if err != nil {
			return fmt.Errorf("compose report: %w", err)
		}
		fmt.Printf("Subject: %s\n", rep.Subject)
		PrintSeparator()
		fmt.Println(rep.Body)
		return nil
	}

	// 3. Send for real
	r := report.NewReporter(st, report.NewSMTPSender(cfg.SMTP), log)
	if err := r.Send(now); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Report sent to %d recipients", len(cfg.SMTP.Recipients)))
	return nil
}
