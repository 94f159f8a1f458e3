package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/market/eastmoney"
	"github.com/newer-zhu/investment/internal/monitor"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch positions and print alerts",
	Long: `Polls live quotes for the positions in the positions file and
prints an alert when a stop-loss, take-profit or trailing-drawdown
rule fires. Alerts for the same stock and rule are suppressed for the
cooldown window.

The server started by ` + "`invest api`" + ` runs the same loop and
streams the alerts over /ws/alerts; this command is the terminal
version for a trading session.

Example:
  invest monitor`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// consoleNotifier prints fired alerts to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Notify(a monitor.Alert) {
	fmt.Printf("\n🔔 [%s] %s %s(%s) price %.2f pnl %+.2f%%\n   %s\n",
		a.Time.Format("15:04:05"), a.Kind, a.Name, a.Code, a.Price, a.PnLPct, a.Message)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Invest Position Monitor ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	// 2. Load the position book
	positions, err := monitor.LoadPositions(cfg.Monitor.PositionsFile)
	if err != nil {
		return fmt.Errorf("load positions from %s: %w", cfg.Monitor.PositionsFile, err)
	}
	if len(positions) == 0 {
		fmt.Println("No positions configured, nothing to monitor")
		return nil
	}

	// 3. Alert cooldown via redis, fail-open when disabled
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	// 4. Start the monitor
	m := monitor.New(cfg.Monitor, eastmoney.New(cfg, log), redis.NewCooldown(rc, "invest"), log)
	m.UpdatePositions(positions)
	m.SetNotifier(consoleNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	fmt.Printf("\n✅ Watching %d positions every %s\n", len(positions), cfg.Monitor.Interval)
	fmt.Printf("   stop-loss %.1f%% | take-profit %.1f%% | trailing %.1f%%\n",
		cfg.Monitor.StopLossPct, cfg.Monitor.TakeProfitPct, cfg.Monitor.TrailingPct)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	m.Stop()
	fmt.Println("\n✅ Monitor stopped")
	return nil
}
