package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/pkg/logger"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed picks",
	Long: `Searches every indexed pick file by stock code, name or industry.
Codes match exactly, by prefix and by wildcard; names and industries
match by text. Results are ranked and the same stock appears once per
published date.

Example:
  invest search 600519
  invest search 白酒
  invest search 云计算 --limit 50`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchLimit int
)

func init() {
	rootCmd.AddCommand(searchCmd)

	// Flags
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum hits to print")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	// 2. Open the index
	idx, err := search.Open(cfg.SearchIndexPath, log)
	if err != nil {
		return fmt.Errorf("open search index at %s: %w", cfg.SearchIndexPath, err)
	}
	defer idx.Close()

	// 3. Query
	query := strings.Join(args, " ")
	hits, err := idx.Search(query, searchLimit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		fmt.Printf("No picks match %q\n", query)
		return nil
	}

	fmt.Printf("%d hits for %q:\n\n", len(hits), query)
	widths := []int{12, 8, 12, 12, 8}
	PrintTableHeader([]string{"DATE", "CODE", "NAME", "INDUSTRY", "TOTAL"}, widths)
	for _, h := range hits {
		PrintTableRow([]string{
			dataset.FormatDateLabel(h.Date),
			h.Code,
			h.Name,
			h.Industry,
			strconv.FormatFloat(h.TotalScore, 'f', 1, 64),
		}, widths)
	}
	return nil
}
