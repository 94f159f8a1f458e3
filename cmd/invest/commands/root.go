package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invest",
	Short: "Daily A-share stock picking and serving",
	Long: `invest - daily A-share pick pipeline

Selects stocks from the MA-breakout universe, confirms and publishes
them as daily CSV files, and serves the results over HTTP together
with the pick browser page, search and position alerts.

Usage:
  invest [command]

Examples:
  invest pick
  invest api
  invest scheduler start
  invest search 白酒`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the default probe")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig applies the global flag overrides and loads configuration.
// An explicit --config file wins over variables already in the process
// environment.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Overload(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}
	if env != "" {
		os.Setenv("ENV", env)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}
	return config.Load()
}

// parseDateFlag turns an optional YYYYMMDD flag into a reference time
// after the session close on that day. An empty flag means now.
func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	d, err := time.ParseInLocation("20060102", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYYMMDD", raw)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, time.Local), nil
}
