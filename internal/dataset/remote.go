package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/newer-zhu/investment/pkg/httputil"
	"github.com/newer-zhu/investment/pkg/logger"
)

// RemoteLoader fetches datasets from the JSON API at
// {base}/api/stocks/{dateKey}.
type RemoteLoader struct {
	baseURL    string
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewRemoteLoader creates a remote-JSON loader
func NewRemoteLoader(baseURL string, httpClient *httputil.Client, log *logger.Logger) *RemoteLoader {
	return &RemoteLoader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// Load fetches and normalizes one date's records.
func (l *RemoteLoader) Load(ctx context.Context, dateKey string) ([]StockRecord, error) {
	if !ValidDateKey(dateKey) {
		return nil, newLoadError(ErrParse, dateKey, fmt.Errorf("invalid date key %q", dateKey))
	}

	url := fmt.Sprintf("%s/api/stocks/%s", l.baseURL, dateKey)

	resp, err := l.httpClient.Get(ctx, url)
	if err != nil {
		return nil, newLoadError(ErrTransport, dateKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newLoadError(ErrTransport, dateKey,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	// A payload without a stocks field is an empty dataset, not an
	// error.
	var payload struct {
		Stocks []InputRow `json:"stocks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newLoadError(ErrParse, dateKey, fmt.Errorf("decode response: %w", err))
	}

	records := Normalize(payload.Stocks)

	l.logger.WithFields(map[string]interface{}{
		"date":     dateKey,
		"raw":      len(payload.Stocks),
		"retained": len(records),
		"source":   "remote",
	}).Debug("Dataset loaded")

	return records, nil
}
