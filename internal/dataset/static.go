package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/newer-zhu/investment/pkg/httputil"
	"github.com/newer-zhu/investment/pkg/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StaticLoader fetches datasets from published CSV files at
// {base}/output/picked_stocks_{dateKey}.csv.
type StaticLoader struct {
	baseURL    string
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewStaticLoader creates a static-CSV loader
func NewStaticLoader(baseURL string, httpClient *httputil.Client, log *logger.Logger) *StaticLoader {
	return &StaticLoader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// Load fetches and normalizes one date's records.
func (l *StaticLoader) Load(ctx context.Context, dateKey string) ([]StockRecord, error) {
	if !ValidDateKey(dateKey) {
		return nil, newLoadError(ErrParse, dateKey, fmt.Errorf("invalid date key %q", dateKey))
	}

	url := fmt.Sprintf("%s/output/picked_stocks_%s.csv", l.baseURL, dateKey)

	resp, err := l.httpClient.Get(ctx, url)
	if err != nil {
		return nil, newLoadError(ErrTransport, dateKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, newLoadError(ErrNotFound, dateKey,
			fmt.Errorf("no dataset published for %s", dateKey))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newLoadError(ErrTransport, dateKey,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newLoadError(ErrTransport, dateKey, fmt.Errorf("read response: %w", err))
	}

	rows, err := ParseCSV(body)
	if err != nil {
		return nil, newLoadError(ErrParse, dateKey, err)
	}

	records := Normalize(rows)

	l.logger.WithFields(map[string]interface{}{
		"date":     dateKey,
		"raw":      len(rows),
		"retained": len(records),
		"source":   "static",
	}).Debug("Dataset loaded")

	return records, nil
}

// ParseCSV decodes CSV bytes into raw rows keyed by the header line.
// A leading UTF-8 byte order mark is stripped before parsing.
func ParseCSV(data []byte) ([]InputRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	header := lines[0]
	rows := make([]InputRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row := make(InputRow, len(header))
		for i, key := range header {
			if i < len(line) {
				row[key] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
