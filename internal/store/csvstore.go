// Package store persists pick datasets, as published CSV files on
// disk and as relational history in PostgreSQL.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/logger"
)

var pickFilePattern = regexp.MustCompile(`^picked_stocks_(\d{8})\.csv$`)

// ErrNoDataset is returned when no pick file has been published yet.
var ErrNoDataset = errors.New("no pick files published")

// CSVStore manages the published pick files under one output
// directory, named picked_stocks_{YYYYMMDD}.csv.
type CSVStore struct {
	dir    string
	logger *logger.Logger
}

// NewCSVStore creates a store rooted at dir. The directory is created
// on the first write.
func NewCSVStore(dir string, log *logger.Logger) *CSVStore {
	return &CSVStore{dir: dir, logger: log}
}

// Path returns the file path for one date's pick file.
func (s *CSVStore) Path(dateKey string) string {
	return filepath.Join(s.dir, fmt.Sprintf("picked_stocks_%s.csv", dateKey))
}

// Exists reports whether a pick file is published for the date.
func (s *CSVStore) Exists(dateKey string) bool {
	_, err := os.Stat(s.Path(dateKey))
	return err == nil
}

// Dates returns the published date keys, newest first.
func (s *CSVStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if m := pickFilePattern.FindStringSubmatch(entry.Name()); m != nil {
			dates = append(dates, m[1])
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// TodayOrLatest returns today's date key if a file is published for
// it, otherwise the newest published key. ErrNoDataset when the store
// is empty.
func (s *CSVStore) TodayOrLatest(now time.Time) (string, error) {
	today := market.DateKey(now)
	if s.Exists(today) {
		return today, nil
	}
	dates, err := s.Dates()
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", ErrNoDataset
	}
	return dates[0], nil
}

// PreviousTo returns the newest published key strictly before dateKey,
// or ErrNoDataset when none exists.
func (s *CSVStore) PreviousTo(dateKey string) (string, error) {
	dates, err := s.Dates()
	if err != nil {
		return "", err
	}
	for _, d := range dates {
		if d < dateKey {
			return d, nil
		}
	}
	return "", ErrNoDataset
}

// ReadRows reads one date's pick file as raw rows keyed by the CSV
// header.
func (s *CSVStore) ReadRows(dateKey string) ([]dataset.InputRow, error) {
	data, err := os.ReadFile(s.Path(dateKey))
	if err != nil {
		return nil, err
	}
	rows, err := dataset.ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path(dateKey), err)
	}
	return rows, nil
}

// ReadRaw reads one date's pick file bytes for direct download.
func (s *CSVStore) ReadRaw(dateKey string) ([]byte, error) {
	return os.ReadFile(s.Path(dateKey))
}

// Load reads and normalizes one date's pick file. It satisfies the
// dataset loader contract so in-process consumers skip the HTTP hop.
func (s *CSVStore) Load(_ context.Context, dateKey string) ([]dataset.StockRecord, error) {
	data, err := s.ReadRaw(dateKey)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &dataset.LoadError{Kind: dataset.ErrNotFound, Date: dateKey, Err: err}
		}
		return nil, &dataset.LoadError{Kind: dataset.ErrTransport, Date: dateKey, Err: err}
	}
	rows, err := dataset.ParseCSV(data)
	if err != nil {
		return nil, &dataset.LoadError{Kind: dataset.ErrParse, Date: dateKey, Err: err}
	}
	return dataset.Normalize(rows), nil
}

// Write publishes one date's records, replacing any existing file.
// The file carries a UTF-8 byte order mark so spreadsheet tools read
// the localized headers correctly.
func (s *CSVStore) Write(dateKey string, records []dataset.StockRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(s.Path(dateKey))
	if err != nil {
		return fmt.Errorf("failed to create pick file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(dataset.CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(formatRecord(r)); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", r.Code, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush pick file: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"date":  dateKey,
		"count": len(records),
		"path":  s.Path(dateKey),
	}).Info("Pick file published")

	return nil
}

// Prune removes the oldest pick files beyond keep and returns how
// many were removed.
func (s *CSVStore) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	dates, err := s.Dates()
	if err != nil {
		return 0, err
	}
	if len(dates) <= keep {
		return 0, nil
	}

	removed := 0
	for _, dateKey := range dates[keep:] {
		if err := os.Remove(s.Path(dateKey)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", s.Path(dateKey), err)
		}
		removed++
	}
	return removed, nil
}

func formatRecord(r dataset.StockRecord) []string {
	return []string{
		r.Code,
		r.Name,
		strconv.FormatFloat(r.Price, 'f', 2, 64),
		strconv.FormatFloat(r.Change, 'f', 2, 64),
		strconv.FormatFloat(r.MarketCap, 'f', 2, 64),
		strconv.FormatFloat(r.YTDChange, 'f', 2, 64),
		r.Industry,
		strconv.FormatFloat(r.FundamentalScore, 'f', 2, 64),
		strconv.FormatFloat(r.TechnicalScore, 'f', 2, 64),
		strconv.FormatFloat(r.TotalScore, 'f', 2, 64),
	}
}
